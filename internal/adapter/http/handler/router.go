package handler

import (
	"splitledger/internal/adapter/http/middleware"
	redisStore "splitledger/internal/adapter/storage/redis"
	"splitledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	SplitSvc       ports.SplitService
	LedgerSvc      ports.LedgerService
	SettlementSvc  ports.SettlementService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	splitHandler := NewSplitHandler(deps.SplitSvc)
	splits := v1.Group("/splits")
	{
		splits.POST("/validate", rl("splits"), splitHandler.Validate)
	}
	transactions := v1.Group("/transactions")
	{
		transactions.POST("/:id/split", rl("splits"), splitHandler.Apply)
		transactions.DELETE("/:id/split", rl("splits"), splitHandler.Reverse)
	}

	balanceHandler := NewBalanceHandler(deps.LedgerSvc)
	balances := v1.Group("/balances")
	{
		balances.GET("/:userA/:userB", rl("balances"), balanceHandler.PairBalance)
	}

	settlementHandler := NewSettlementHandler(deps.SettlementSvc)
	settlements := v1.Group("/settlements")
	{
		settlements.POST("", rl("settlements"), settlementHandler.Create)
		settlements.POST("/:id/confirm", rl("settlements"), settlementHandler.Confirm)
		settlements.POST("/:id/dispute", rl("settlements"), settlementHandler.Dispute)
	}

	users := v1.Group("/users")
	{
		users.GET("/:id/balances", rl("balances"), balanceHandler.UserBalances)
		users.GET("/:id/simplify", rl("simplify"), balanceHandler.SimplifyUser)
		users.GET("/:id/settlements", rl("balances"), settlementHandler.ListForUser)
	}

	groups := v1.Group("/groups")
	{
		groups.GET("/:id/simplify", rl("simplify"), balanceHandler.SimplifyGroup)
	}

	return r
}
