package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/redis/go-redis/v9"
)

// redisStore keeps one JSON document per job and a set of known ids.
// Finished jobs expire after ttl when it is set.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to Redis and checks the connection.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisStore{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (r *redisStore) key(id string) string {
	return r.prefix + ":job:" + id
}

func (r *redisStore) index() string {
	return r.prefix + ":jobs"
}

func (r *redisStore) expiration(job models.Job) time.Duration {
	if job.IsDone() {
		return r.ttl
	}
	return 0
}

func (r *redisStore) Create(ctx context.Context, job models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.key(job.ID), data, r.expiration(job)).Result()
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrJobExists, job.ID)
	}

	if err := r.client.SAdd(ctx, r.index(), job.ID).Err(); err != nil {
		return fmt.Errorf("index job: %w", err)
	}
	return nil
}

func (r *redisStore) Get(ctx context.Context, id string) (models.Job, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Job{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.Job{}, fmt.Errorf("get job: %w", err)
	}
	return decodeJob(data)
}

// Update runs fn inside WATCH/MULTI and retries when another writer got in
// between the read and the commit.
func (r *redisStore) Update(ctx context.Context, id string, fn UpdateFunc) (models.Job, error) {
	key := r.key(id)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var updated models.Job

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("%w: %s", models.ErrNotFound, id)
			}
			if err != nil {
				return fmt.Errorf("get job: %w", err)
			}

			job, err := decodeJob(data)
			if err != nil {
				return err
			}
			if err := fn(&job); err != nil {
				return err
			}

			out, err := json.Marshal(job)
			if err != nil {
				return fmt.Errorf("marshal job: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, r.expiration(job))
				return nil
			})
			if err == nil {
				updated = job
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return models.Job{}, err
		}
		return updated, nil
	}

	return models.Job{}, fmt.Errorf("update job %s: too much contention", id)
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if err := r.client.SRem(ctx, r.index(), id).Err(); err != nil {
		return fmt.Errorf("unindex job: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return nil
}

func (r *redisStore) List(ctx context.Context) ([]models.Job, error) {
	ids, err := r.client.SMembers(ctx, r.index()).Result()
	if err != nil {
		return nil, fmt.Errorf("list job ids: %w", err)
	}
	if len(ids) == 0 {
		return []models.Job{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]models.Job, 0, len(values))
	var expired []any
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		job, err := decodeJob([]byte(s))
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if len(expired) > 0 {
		// keys expired by ttl leave their ids behind
		if err := r.client.SRem(ctx, r.index(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("prune job index: %w", err)
		}
	}

	sortJobs(jobs)
	return jobs, nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}

func decodeJob(data []byte) (models.Job, error) {
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return models.Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
