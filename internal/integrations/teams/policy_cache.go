package teams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
	provdomain "github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
)

// CachedDirectory decorates a Directory with a per-tenant Redis cache for
// routing policies, which change rarely but back every policy picker in
// the UI. Directory fetches and assignments pass through uncached.
type CachedDirectory struct {
	inner  Directory
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedDirectory(inner Directory, redisClient *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedDirectory{inner: inner, redis: redisClient, ttl: ttl, logger: logger}
}

func policyCacheKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("voiceadmin:routing_policies:%s", tenantID)
}

func (c *CachedDirectory) FetchDirectory(ctx context.Context, tenantID uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
	return c.inner.FetchDirectory(ctx, tenantID)
}

func (c *CachedDirectory) SubmitBulkAssignment(ctx context.Context, tenantID uuid.UUID, requests []provdomain.AssignmentRequest) ([]provdomain.AssignmentResult, error) {
	return c.inner.SubmitBulkAssignment(ctx, tenantID, requests)
}

func (c *CachedDirectory) FetchRoutingPolicies(ctx context.Context, tenantID uuid.UUID) ([]RoutingPolicy, error) {
	key := policyCacheKey(tenantID)
	cached, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var policies []RoutingPolicy
		if err := json.Unmarshal(cached, &policies); err == nil {
			return policies, nil
		}
		// Corrupt cache entry; fall through to a fresh fetch.
		c.redis.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "policy cache read failed, falling back to bridge", "tenant_id", tenantID, "error", err)
	}

	policies, err := c.inner.FetchRoutingPolicies(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(policies); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "policy cache write failed", "tenant_id", tenantID, "error", err)
		}
	}
	return policies, nil
}

// InvalidatePolicies drops the tenant's cached policy list, e.g. after an
// operator reports stale pickers.
func (c *CachedDirectory) InvalidatePolicies(ctx context.Context, tenantID uuid.UUID) error {
	return c.redis.Del(ctx, policyCacheKey(tenantID)).Err()
}
