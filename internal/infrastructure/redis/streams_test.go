package redis

import (
	"testing"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContinuationEncoding(t *testing.T) {
	c := checkout.ChargeableContinuation{
		EventID:       "evt_1",
		ChannelID:     "storefront",
		TransactionID: uuid.New(),
		SourceID:      "src_1",
		Attempt:       2,
	}

	values, err := EncodeContinuation(c)
	require.NoError(t, err)
	assert.Equal(t, c.TransactionID.String(), values["transaction_id"])

	got, err := DecodeContinuation(values)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDecodeContinuation_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"no payload", map[string]any{}},
		{"payload not a string", map[string]any{"payload": 42}},
		{"invalid json", map[string]any{"payload": "{"}},
		{"no source", map[string]any{"payload": `{"event_id":"evt_1"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeContinuation(tt.values)
			assert.Error(t, err)
		})
	}
}

func TestChargeClaimKey(t *testing.T) {
	id := uuid.MustParse("5b3f0c7e-8c1d-4a55-9d7c-0f3f6d1c2a10")
	assert.Equal(t, "charge:5b3f0c7e-8c1d-4a55-9d7c-0f3f6d1c2a10", ChargeClaimKey(id))
}
