package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for safe release (only the owner can release)
var releaseClaimScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// ChargeClaimer hands out the short-lived exclusive right to create the charge of an
// order transaction. The TTL bounds how long a crashed holder blocks the other path.
type ChargeClaimer struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChargeClaimer(client *redis.Client, ttl time.Duration) *ChargeClaimer {
	return &ChargeClaimer{client: client, ttl: ttl}
}

func ChargeClaimKey(txID uuid.UUID) string {
	return fmt.Sprintf("charge:%s", txID)
}

// Claim returns ErrChargeInProgress when another path holds the claim.
func (c *ChargeClaimer) Claim(ctx context.Context, txID uuid.UUID) (reconciliation.ChargeClaim, error) {
	claim := &chargeClaim{
		client: c.client,
		key:    ChargeClaimKey(txID),
		owner:  uuid.New().String(),
	}

	ok, err := c.client.SetNX(ctx, claim.key, claim.owner, c.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire charge claim: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", txID, domainErrors.ErrChargeInProgress)
	}
	return claim, nil
}

type chargeClaim struct {
	client *redis.Client
	key    string
	owner  string
}

// Release fails with ErrLockNotHeld when the claim expired before release.
func (c *chargeClaim) Release(ctx context.Context) error {
	result, err := releaseClaimScript.Run(ctx, c.client, []string{c.key}, c.owner).Result()
	if err != nil {
		return fmt.Errorf("failed to release charge claim: %w", err)
	}

	val, ok := result.(int64)
	if !ok || val == 0 {
		return fmt.Errorf("%s: %w", c.key, domainErrors.ErrLockNotHeld)
	}
	return nil
}
