package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatus_IsValid(t *testing.T) {
	assert.True(t, PaymentStatusPending.IsValid())
	assert.True(t, PaymentStatusCompleted.IsValid())
	assert.True(t, PaymentStatusFailed.IsValid())
	assert.False(t, PaymentStatus("refunded").IsValid())
	assert.False(t, PaymentStatus("").IsValid())
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(50000), ToCents(500))
	assert.Equal(t, int64(49900), ToCents(499))
	assert.Equal(t, int64(1999), ToCents(19.99))
	assert.Equal(t, int64(30), ToCents(0.1+0.2))
	assert.Equal(t, int64(0), ToCents(0))

	e := &Event{Price: 250.5}
	assert.Equal(t, int64(25050), e.PriceCents())
}

func TestUpdateEventParams_IsEmpty(t *testing.T) {
	assert.True(t, UpdateEventParams{}.IsEmpty())
	name := "Battle of Bands"
	assert.False(t, UpdateEventParams{Name: &name}.IsEmpty())
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	u := User{Email: "a@b.io", PasswordHash: "$2a$10$secret"}
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
}
