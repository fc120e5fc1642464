// Package cache provides the Redis read-through cache for derived stock
// figures. The movement ledger is the source of truth; every write path
// invalidates explicitly, so a cache miss is always safe and a hit is only
// ever as stale as the last uninvalidated write.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/reports"
	"kardex/pkg/logger"
)

// StockCache caches per-product stock totals and branch analytics.
// Errors are logged and reported as misses; Redis being down must never
// fail a request.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a stock cache over an existing Redis client.
func New(client *redis.Client, ttl time.Duration) *StockCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StockCache{client: client, ttl: ttl}
}

func stockKey(scope tenant.Scope, productID id.ID) string {
	return fmt.Sprintf("kardex:stock:%d:%s", scope.BranchID, productID)
}

func analyticsKey(scope tenant.Scope) string {
	return fmt.Sprintf("kardex:analytics:%d:%d", scope.BranchID, scope.OwnerUserID)
}

// GetStock returns the cached stock total for a product.
func (c *StockCache) GetStock(ctx context.Context, scope tenant.Scope, productID id.ID) (types.Quantity, bool) {
	raw, err := c.client.Get(ctx, stockKey(scope, productID)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx, "stock cache read failed", "error", err)
		}
		return types.Zero(), false
	}

	total, err := types.NewFromString(raw)
	if err != nil {
		return types.Zero(), false
	}
	return total, true
}

// SetStock caches a product's stock total.
func (c *StockCache) SetStock(ctx context.Context, scope tenant.Scope, productID id.ID, total types.Quantity) {
	if err := c.client.Set(ctx, stockKey(scope, productID), total.String(), c.ttl).Err(); err != nil {
		logger.Warn(ctx, "stock cache write failed", "error", err)
	}
}

// InvalidateProduct drops the product's cached total and the branch
// analytics that include it. Called by the ledger after every write.
func (c *StockCache) InvalidateProduct(ctx context.Context, scope tenant.Scope, productID id.ID) error {
	return c.client.Del(ctx, stockKey(scope, productID), analyticsKey(scope)).Err()
}

// GetAnalytics returns the cached analytics payload for the branch.
func (c *StockCache) GetAnalytics(ctx context.Context, scope tenant.Scope) (*reports.Analytics, bool) {
	raw, err := c.client.Get(ctx, analyticsKey(scope)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx, "analytics cache read failed", "error", err)
		}
		return nil, false
	}

	var a reports.Analytics
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false
	}
	return &a, true
}

// SetAnalytics caches the analytics payload for the branch.
func (c *StockCache) SetAnalytics(ctx context.Context, scope tenant.Scope, a *reports.Analytics) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, analyticsKey(scope), raw, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "analytics cache write failed", "error", err)
	}
}

var (
	_ ledger.StockInvalidator = (*StockCache)(nil)
	_ reports.StockCache      = (*StockCache)(nil)
)
