package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from WithdrawalStatus
		to   WithdrawalStatus
		want bool
	}{
		{PENDING, APPROVED, true},
		{PENDING, PAID, true},
		{PENDING, REJECTED, true},
		{PENDING, CANCELED, true},
		{APPROVED, PAID, true},
		{APPROVED, REJECTED, true},
		{APPROVED, CANCELED, false},
		{APPROVED, PENDING, false},
		{PAID, REJECTED, false},
		{PAID, APPROVED, false},
		{REJECTED, PENDING, false},
		{REJECTED, APPROVED, false},
		{CANCELED, PENDING, false},
		{PENDING, PENDING, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestWithdrawalStatus_Open(t *testing.T) {
	assert.True(t, PENDING.Open())
	assert.True(t, APPROVED.Open())
	assert.False(t, PAID.Open())
	assert.False(t, REJECTED.Open())
	assert.False(t, CANCELED.Open())
}

func TestWithdrawalStatus_Terminal(t *testing.T) {
	assert.False(t, PENDING.Terminal())
	assert.False(t, APPROVED.Terminal())
	assert.True(t, PAID.Terminal())
	assert.True(t, REJECTED.Terminal())
	assert.True(t, CANCELED.Terminal())
}

func TestWithdrawal_AppendNote(t *testing.T) {
	w := new(Withdrawal)

	w.AppendNote("approve", "")
	assert.Empty(t, w.AdminNote)

	w.AppendNote("approve", "checked manually")
	assert.Equal(t, "[approve] checked manually", w.AdminNote)

	w.AppendNote("proof", "https://pay.example/receipt/9")
	assert.Equal(t,
		"[approve] checked manually\n[proof] https://pay.example/receipt/9",
		w.AdminNote)
}

func TestParseWithdrawalMethod(t *testing.T) {
	for _, valid := range []string{"CARD", "CLICK", "PAYME", "OTHER"} {
		m, err := ParseWithdrawalMethod(valid)
		assert.NoError(t, err)
		assert.EqualValues(t, valid, m)
	}

	_, err := ParseWithdrawalMethod("card")
	assert.Error(t, err)
}
