package jobstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// maxUpdateRetries bounds optimistic retries for the networked stores.
const maxUpdateRetries = 16

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		log.Info(ctx, "Job store: memory")
		return NewMemory(), nil
	case "redis":
		log.Info(ctx, "Job store: redis at %s", cfg.Redis.Addr)
		return NewRedis(ctx, cfg.Redis)
	case "cassandra":
		log.Info(ctx, "Job store: cassandra at %v (keyspace %s)", cfg.Cassandra.Hosts, cfg.Cassandra.Keyspace)
		return NewCassandra(ctx, cfg.Cassandra)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func sortJobs(jobs []models.Job) {
	sort.SliceStable(jobs, func(a, b int) bool {
		if jobs[a].CreatedAt.Equal(jobs[b].CreatedAt) {
			return jobs[a].ID < jobs[b].ID
		}
		return jobs[a].CreatedAt.Before(jobs[b].CreatedAt)
	})
}
