package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/skillproof/internal/adapter/httpserver"
)

// Pinger is the minimal interface for a dependency capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the db, redis and tika checks. Redis is only
// checked when a client is configured since the oracle throttle is optional.
func BuildReadinessChecks(pool Pinger, rdb *redis.Client, tika Pinger) []httpserver.ReadinessCheck {
	checks := []httpserver.ReadinessCheck{
		{Name: "db", Check: func(ctx context.Context) error {
			if pool == nil {
				return fmt.Errorf("db not configured")
			}
			return pool.Ping(ctx)
		}},
		{Name: "tika", Check: func(ctx context.Context) error {
			if tika == nil {
				return fmt.Errorf("tika not configured")
			}
			return tika.Ping(ctx)
		}},
	}
	if rdb != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	return checks
}
