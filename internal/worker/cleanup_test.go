package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCleaner_RunOnce(t *testing.T) {
	var order []string
	task := func(name string, n int64, err error) CleanupTask {
		return CleanupTask{Name: name, Run: func(context.Context) (int64, error) {
			order = append(order, name)
			return n, err
		}}
	}

	c := NewCleaner(zerolog.Nop(),
		task("idempotency_keys", 3, nil),
		task("webhook_events", 0, errors.New("timeout")),
		task("outbox", 7, nil),
	)

	removed := c.RunOnce(context.Background())

	assert.Equal(t, []string{"idempotency_keys", "webhook_events", "outbox"}, order)
	assert.Equal(t, map[string]int64{"idempotency_keys": 3, "outbox": 7}, removed)
}
