package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/gocql/gocql"
	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

var reKeyspace = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,47}$`)

// loads read at SERIAL so they observe every committed compare-and-set.
var readConsistency = gocql.Consistency(gocql.Serial)

// cassandraStore keeps each job as a JSON record with a version column used
// for lightweight-transaction compare-and-set.
type cassandraStore struct {
	session *gocql.Session
}

// NewCassandra connects, creating the keyspace and table when missing.
func NewCassandra(ctx context.Context, cfg config.CassandraConfig) (Store, error) {
	if !reKeyspace.MatchString(cfg.Keyspace) {
		return nil, fmt.Errorf("invalid cassandra keyspace %q", cfg.Keyspace)
	}

	if err := ensureKeyspace(ctx, cfg); err != nil {
		return nil, err
	}

	cluster := newCluster(cfg)
	cluster.Keyspace = cfg.Keyspace

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Cassandra: %w", err)
	}

	const table = `CREATE TABLE IF NOT EXISTS jobs (id text PRIMARY KEY, record text, version bigint)`
	if err := session.Query(table).WithContext(ctx).Exec(); err != nil {
		session.Close()
		return nil, fmt.Errorf("create jobs table: %w", err)
	}

	return &cassandraStore{session: session}, nil
}

func newCluster(cfg config.CassandraConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.Timeout
	return cluster
}

func ensureKeyspace(ctx context.Context, cfg config.CassandraConfig) error {
	session, err := newCluster(cfg).CreateSession()
	if err != nil {
		return fmt.Errorf("failed to connect to Cassandra: %w", err)
	}
	defer session.Close()

	stmt := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, cfg.Keyspace)
	if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create keyspace: %w", err)
	}
	return nil
}

func (c *cassandraStore) Create(ctx context.Context, job models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	applied, err := c.session.Query(
		`INSERT INTO jobs (id, record, version) VALUES (?, ?, ?) IF NOT EXISTS`,
		job.ID, string(data), int64(1),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if !applied {
		return fmt.Errorf("%w: %s", models.ErrJobExists, job.ID)
	}
	return nil
}

func (c *cassandraStore) load(ctx context.Context, id string) (models.Job, int64, error) {
	var record string
	var version int64

	err := c.session.Query(`SELECT record, version FROM jobs WHERE id = ?`, id).
		WithContext(ctx).
		Consistency(readConsistency).
		Scan(&record, &version)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Job{}, 0, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.Job{}, 0, fmt.Errorf("get job: %w", err)
	}

	job, err := decodeJob([]byte(record))
	return job, version, err
}

func (c *cassandraStore) Get(ctx context.Context, id string) (models.Job, error) {
	job, _, err := c.load(ctx, id)
	return job, err
}

// Update reads the record and its version, then writes only if the version
// is unchanged, retrying on conflict.
func (c *cassandraStore) Update(ctx context.Context, id string, fn UpdateFunc) (models.Job, error) {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		job, version, err := c.load(ctx, id)
		if err != nil {
			return models.Job{}, err
		}
		if err := fn(&job); err != nil {
			return models.Job{}, err
		}

		data, err := json.Marshal(job)
		if err != nil {
			return models.Job{}, fmt.Errorf("marshal job: %w", err)
		}

		applied, err := c.session.Query(
			`UPDATE jobs SET record = ?, version = ? WHERE id = ? IF version = ?`,
			string(data), version+1, id, version,
		).WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return models.Job{}, fmt.Errorf("update job: %w", err)
		}
		if applied {
			return job, nil
		}
	}
	return models.Job{}, fmt.Errorf("update job %s: too much contention", id)
}

func (c *cassandraStore) Delete(ctx context.Context, id string) error {
	applied, err := c.session.Query(`DELETE FROM jobs WHERE id = ? IF EXISTS`, id).
		WithContext(ctx).
		MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if !applied {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return nil
}

func (c *cassandraStore) List(ctx context.Context) ([]models.Job, error) {
	iter := c.session.Query(`SELECT record FROM jobs`).WithContext(ctx).Iter()

	jobs := []models.Job{}
	var record string
	for iter.Scan(&record) {
		job, err := decodeJob([]byte(record))
		if err != nil {
			iter.Close()
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	sortJobs(jobs)
	return jobs, nil
}

func (c *cassandraStore) Close() error {
	c.session.Close()
	return nil
}
