package health

import (
	"context"
	"errors"
)

// AgentCounter is satisfied by evidence.AgentStore. Counting active agents
// is a cheap query that exercises the store's connection.
type AgentCounter interface {
	CountActiveAgents(ctx context.Context) (int, error)
}

// Pinger is satisfied by the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Runner is satisfied by the cron schedulers.
type Runner interface {
	IsRunning() bool
}

// StoreCheck verifies the audit store answers queries.
func StoreCheck(store AgentCounter) CheckFunc {
	return func(ctx context.Context) error {
		_, err := store.CountActiveAgents(ctx)
		return err
	}
}

// PingCheck verifies a dependency answers a ping.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// RunnerCheck verifies a background scheduler is still running.
func RunnerCheck(r Runner) CheckFunc {
	return func(ctx context.Context) error {
		if !r.IsRunning() {
			return errors.New("scheduler not running")
		}
		return nil
	}
}
