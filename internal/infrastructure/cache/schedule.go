// Package cache keeps derived bond schedules in Redis. Schedules are never
// authoritative: a miss, an expired key or a corrupt entry only means the
// caller rebuilds from the bond terms.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bonofacil-backend/internal/finance"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const scheduleKeyPrefix = "bond:schedule:"

// ScheduleCache stores schedules as JSON under bond:schedule:<bond_id>.
// A nil cache or nil client behaves as a permanent miss.
type ScheduleCache struct {
	Rdb *redis.Client
	TTL time.Duration
}

func ScheduleKey(bondID uuid.UUID) string {
	return scheduleKeyPrefix + bondID.String()
}

func (c *ScheduleCache) enabled() bool {
	return c != nil && c.Rdb != nil
}

// Get returns the cached schedule and whether it was found.
func (c *ScheduleCache) Get(ctx context.Context, bondID uuid.UUID) ([]finance.CashFlowPeriod, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	b, err := c.Rdb.Get(ctx, ScheduleKey(bondID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var schedule []finance.CashFlowPeriod
	if err := json.Unmarshal(b, &schedule); err != nil {
		// drop the bad entry so the next read rebuilds it
		_ = c.Rdb.Del(ctx, ScheduleKey(bondID)).Err()
		return nil, false, nil
	}
	return schedule, true, nil
}

func (c *ScheduleCache) Set(ctx context.Context, bondID uuid.UUID, schedule []finance.CashFlowPeriod) error {
	if !c.enabled() {
		return nil
	}
	b, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	return c.Rdb.Set(ctx, ScheduleKey(bondID), b, c.TTL).Err()
}

func (c *ScheduleCache) Invalidate(ctx context.Context, bondID uuid.UUID) error {
	if !c.enabled() {
		return nil
	}
	return c.Rdb.Del(ctx, ScheduleKey(bondID)).Err()
}
