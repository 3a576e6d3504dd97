package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitType_Valid(t *testing.T) {
	assert.True(t, SplitTypeEqual.Valid())
	assert.True(t, SplitTypePercentage.Valid())
	assert.True(t, SplitTypeCustom.Valid())
	assert.False(t, SplitType("RANDOM").Valid())
	assert.False(t, SplitType("").Valid())
}

func TestParsePercent(t *testing.T) {
	p, err := ParsePercent("50")
	require.NoError(t, err)
	assert.Equal(t, Percent(5000), p)

	p, err = ParsePercent("33.33")
	require.NoError(t, err)
	assert.Equal(t, Percent(3333), p)

	p, err = ParsePercent("100.00")
	require.NoError(t, err)
	assert.Equal(t, PercentHundred, p)

	_, err = ParsePercent("12.345")
	assert.ErrorIs(t, err, ErrBadPercentFormat)

	_, err = ParsePercent("abc")
	assert.ErrorIs(t, err, ErrBadPercentFormat)
}

func TestPercent_String(t *testing.T) {
	assert.Equal(t, "50.00", Percent(5000).String())
	assert.Equal(t, "33.33", Percent(3333).String())
	assert.Equal(t, "100.00", PercentHundred.String())
}

func TestSplitConfig_CheckInvariants(t *testing.T) {
	base := func() SplitConfig {
		return SplitConfig{
			Type:   SplitTypeCustom,
			PaidBy: "u1",
			Participants: []Participant{
				{UserID: "u1", Share: Money{Units: 100, Currency: "INR"}},
				{UserID: "u2", Share: Money{Units: 100, Currency: "INR"}},
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().CheckInvariants())
	})

	t.Run("no participants", func(t *testing.T) {
		c := base()
		c.Participants = nil
		assert.Error(t, c.CheckInvariants())
	})

	t.Run("unknown type", func(t *testing.T) {
		c := base()
		c.Type = "HALVES"
		assert.Error(t, c.CheckInvariants())
	})

	t.Run("payer not a participant", func(t *testing.T) {
		c := base()
		c.PaidBy = "u9"
		assert.Error(t, c.CheckInvariants())
	})

	t.Run("blank user id", func(t *testing.T) {
		c := base()
		c.Participants[1].UserID = "  "
		assert.Error(t, c.CheckInvariants())
	})

	t.Run("settled without timestamp", func(t *testing.T) {
		c := base()
		c.Participants[0].Settled = true
		assert.Error(t, c.CheckInvariants())
	})

	t.Run("MarkSettled keeps the invariant", func(t *testing.T) {
		c := base()
		c.Participants[0].MarkSettled(time.Now())
		assert.NoError(t, c.CheckInvariants())
	})
}

func TestNormalizePair(t *testing.T) {
	low, high, err := NormalizePair("bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", low)
	assert.Equal(t, "bob", high)

	low, high, err = NormalizePair("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", low)
	assert.Equal(t, "bob", high)

	_, _, err = NormalizePair("alice", "alice")
	assert.ErrorIs(t, err, ErrSelfPair)
}

func TestBalanceEdge_Perspective(t *testing.T) {
	e := BalanceEdge{
		UserLow:  "alice",
		UserHigh: "bob",
		Amount:   Money{Units: 500, Currency: "INR"},
	}

	// alice owes bob 5.00
	assert.Equal(t, int64(500), e.BalanceFrom("alice").Units)
	assert.Equal(t, int64(-500), e.BalanceFrom("bob").Units)
	assert.Equal(t, "bob", e.Other("alice"))
	assert.Equal(t, "alice", e.Other("bob"))
}

func TestSettlement_StateMachine(t *testing.T) {
	s := &Settlement{
		ID:          uuid.New(),
		PayerID:     "u1",
		RecipientID: "u2",
		Amount:      Money{Units: 10000, Currency: "INR"},
		Status:      SettlementStatusPending,
	}

	assert.False(t, s.IsTerminal())
	assert.True(t, s.CanConfirm())
	assert.True(t, s.CanDispute())

	s.Status = SettlementStatusConfirmed
	assert.True(t, s.IsTerminal())
	assert.False(t, s.CanConfirm())
	assert.False(t, s.CanDispute())

	s.Status = SettlementStatusDisputed
	assert.True(t, s.IsTerminal())
	assert.False(t, s.CanConfirm())
	assert.False(t, s.CanDispute())
}

func TestValidationResult_Accumulates(t *testing.T) {
	r := NewValidationResult()
	assert.True(t, r.IsValid)
	assert.Empty(t, r.Errors)

	r.Addf("Participant %d: share must be a non-negative number", 2)
	r.Addf("shares must sum to transaction amount")

	assert.False(t, r.IsValid)
	assert.Len(t, r.Errors, 2)
	assert.Contains(t, r.Errors[0], "Participant 2")
}
