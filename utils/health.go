package utils

import (
	"context"
	"sync"
	"time"

	"barberly/resilience"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus is the dependency view served by the health endpoint: the
// latest connectivity probe plus a live snapshot of every registered circuit
// breaker.
type HealthStatus struct {
	Mongo     bool                  `json:"mongo"`
	Redis     []bool                `json:"redis"`
	Breakers  []resilience.Snapshot `json:"breakers"`
	CheckedAt time.Time             `json:"checkedAt"`
}

var (
	healthMu        sync.RWMutex
	lastProbe       HealthStatus
	watchedBreakers []*resilience.Breaker
)

// RegisterBreakers adds circuit breakers to the health report.
func RegisterBreakers(bs ...*resilience.Breaker) {
	healthMu.Lock()
	defer healthMu.Unlock()
	watchedBreakers = append(watchedBreakers, bs...)
}

// GetHealthStatus combines the latest stored probe with breaker snapshots
// taken at read time, so breaker state is always current rather than as old
// as the last probe.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	status := lastProbe
	bs := append([]*resilience.Breaker(nil), watchedBreakers...)
	healthMu.RUnlock()

	status.Breakers = make([]resilience.Snapshot, 0, len(bs))
	for _, b := range bs {
		status.Breakers = append(status.Breakers, b.Snapshot())
	}
	return status
}

func probeDependencies(ctx context.Context, redisClients []*redis.Client, mongoClient *mongo.Client) {
	redisHealth := make([]bool, 0, len(redisClients))
	for _, client := range redisClients {
		redisHealth = append(redisHealth, client.Ping(ctx).Err() == nil)
	}
	mongoHealthy := mongoClient.Ping(ctx, nil) == nil

	healthMu.Lock()
	lastProbe = HealthStatus{
		Mongo:     mongoHealthy,
		Redis:     redisHealth,
		CheckedAt: time.Now(),
	}
	healthMu.Unlock()
}

// StartHealthMonitor probes dependency connectivity immediately and then once
// a minute, updating the in-memory snapshot.
func StartHealthMonitor(redisClients []*redis.Client, mongoClient *mongo.Client) {
	go func() {
		ctx := context.Background()
		probeDependencies(ctx, redisClients, mongoClient)

		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			probeDependencies(ctx, redisClients, mongoClient)
		}
	}()
}
