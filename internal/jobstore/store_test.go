package jobstore

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// runStoreContract exercises the behaviour every driver must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	newID := func() string { return "test-" + uuid.NewString() }

	t.Run("create and get", func(t *testing.T) {
		id := newID()
		if err := s.Create(ctx, models.NewJob(id, models.Source{URL: "https://example.com/a.mp3"}, base)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		got, err := s.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Status != models.JobStatusQueued || got.Progress != 0 || got.Source.URL != "https://example.com/a.mp3" {
			t.Errorf("Get() = %+v", got)
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		id := newID()
		job := models.NewJob(id, models.Source{FilePath: "/tmp/x.mp3"}, base)
		if err := s.Create(ctx, job); err != nil {
			t.Fatal(err)
		}
		if err := s.Create(ctx, job); !errors.Is(err, models.ErrJobExists) {
			t.Fatalf("Create() error = %v, want ErrJobExists", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		id := newID()
		if _, err := s.Get(ctx, id); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Get() error = %v", err)
		}
		if _, err := s.Update(ctx, id, func(*models.Job) error { return nil }); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Update() error = %v", err)
		}
		if err := s.Delete(ctx, id); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Delete() error = %v", err)
		}
	})

	t.Run("update commits and aborts", func(t *testing.T) {
		id := newID()
		if err := s.Create(ctx, models.NewJob(id, models.Source{URL: "https://x"}, base)); err != nil {
			t.Fatal(err)
		}

		updated, err := s.Update(ctx, id, func(j *models.Job) error {
			return j.Advance(30, "transcribing", base.Add(time.Second))
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Progress != 30 || updated.Status != models.JobStatusProcessing {
			t.Errorf("Update() = %+v", updated)
		}

		boom := errors.New("boom")
		_, err = s.Update(ctx, id, func(j *models.Job) error {
			j.Message = "should not be written"
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update() error = %v, want boom", err)
		}

		got, _ := s.Get(ctx, id)
		if got.Message != "transcribing" {
			t.Errorf("aborted update leaked: message = %q", got.Message)
		}
	})

	t.Run("result round trip", func(t *testing.T) {
		id := newID()
		if err := s.Create(ctx, models.NewJob(id, models.Source{URL: "https://x"}, base)); err != nil {
			t.Fatal(err)
		}
		result := models.JobResult{
			Title:      "talk",
			Summary:    "short",
			Sentiment:  models.Sentiment{Pos: 0.5, Neu: 0.5},
			Transcript: []models.LabeledTranscriptItem{{Start: 0, End: 1.5, Speaker: "Speaker 1", Text: "hi"}},
			Chapters:   []models.ChapterSpan{{Title: "Overview", Start: 0, End: 1.5}},
		}
		_, err := s.Update(ctx, id, func(j *models.Job) error {
			if err := j.Advance(50, "x", base); err != nil {
				return err
			}
			return j.Complete(result, base)
		})
		if err != nil {
			t.Fatal(err)
		}

		got, err := s.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != models.JobStatusCompleted || got.Result == nil || got.Result.Transcript[0].Speaker != "Speaker 1" {
			t.Errorf("Get() = %+v", got)
		}
	})

	t.Run("concurrent updates are atomic", func(t *testing.T) {
		id := newID()
		if err := s.Create(ctx, models.NewJob(id, models.Source{URL: "https://x"}, base)); err != nil {
			t.Fatal(err)
		}

		const writers = 8
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, id, func(j *models.Job) error {
					j.Progress++
					return nil
				})
				if err != nil {
					t.Errorf("Update() error = %v", err)
				}
			}()
		}
		wg.Wait()

		got, _ := s.Get(ctx, id)
		if got.Progress != writers {
			t.Errorf("progress = %d, want %d (lost update)", got.Progress, writers)
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		first, second := newID(), newID()
		if err := s.Create(ctx, models.NewJob(second, models.Source{URL: "https://b"}, base.Add(2*time.Hour))); err != nil {
			t.Fatal(err)
		}
		if err := s.Create(ctx, models.NewJob(first, models.Source{URL: "https://a"}, base.Add(time.Hour))); err != nil {
			t.Fatal(err)
		}

		jobs, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		pos := map[string]int{}
		for i, j := range jobs {
			pos[j.ID] = i
		}
		if _, ok := pos[first]; !ok {
			t.Fatalf("List() misses %s", first)
		}
		if pos[first] > pos[second] {
			t.Errorf("List() not ordered by creation")
		}

		if err := s.Delete(ctx, first); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Get(ctx, first); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Get() after delete error = %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	job := models.NewJob("j1", models.Source{URL: "https://x"}, time.Now())
	if err := s.Create(ctx, job); err != nil {
		t.Fatal(err)
	}
	_, err := s.Update(ctx, "j1", func(j *models.Job) error {
		if err := j.Advance(10, "x", time.Now()); err != nil {
			return err
		}
		return j.Complete(models.JobResult{Chapters: []models.ChapterSpan{{Title: "a", End: 1}}}, time.Now())
	})
	if err != nil {
		t.Fatal(err)
	}

	got, _ := s.Get(ctx, "j1")
	got.Result.Chapters[0].Title = "mutated"

	again, _ := s.Get(ctx, "j1")
	if again.Result.Chapters[0].Title != "a" {
		t.Fatalf("stored record aliased by reader: %q", again.Result.Chapters[0].Title)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	s, err := NewRedis(ctx, config.RedisConfig{Addr: addr, Prefix: "insightflow-test-" + uuid.NewString()[:8], TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestCassandraStore(t *testing.T) {
	hosts := os.Getenv("CASSANDRA_HOSTS")
	if hosts == "" {
		t.Skip("CASSANDRA_HOSTS not set")
	}
	ctx := context.Background()
	s, err := NewCassandra(ctx, config.CassandraConfig{
		Hosts:    strings.Split(hosts, ","),
		Keyspace: "insightflow_test",
		Timeout:  10 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewCassandra() error = %v", err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestNewSelectsDriver(t *testing.T) {
	s, err := New(context.Background(), config.StoreConfig{Driver: "memory"}, logger.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := s.(*memoryStore); !ok {
		t.Errorf("New() = %T, want memory store", s)
	}

	if _, err := New(context.Background(), config.StoreConfig{Driver: "etcd"}, logger.Discard()); err == nil {
		t.Error("New() should reject unknown drivers")
	}
}

func TestNewCassandraRejectsBadKeyspace(t *testing.T) {
	_, err := NewCassandra(context.Background(), config.CassandraConfig{Hosts: []string{"127.0.0.1"}, Keyspace: "bad; DROP"})
	if err == nil || !strings.Contains(err.Error(), "invalid cassandra keyspace") {
		t.Fatalf("NewCassandra() error = %v", err)
	}
}

func TestCassandraClusterSettings(t *testing.T) {
	cfg := config.CassandraConfig{Hosts: []string{"10.0.0.1", "10.0.0.2"}, Keyspace: "insight", Timeout: 3 * time.Second}
	cluster := newCluster(cfg)

	if cluster.Consistency != gocql.Quorum {
		t.Errorf("Consistency = %v, want quorum", cluster.Consistency)
	}
	if cluster.Timeout != cfg.Timeout || cluster.ConnectTimeout != cfg.Timeout {
		t.Errorf("timeouts = %v/%v, want %v", cluster.Timeout, cluster.ConnectTimeout, cfg.Timeout)
	}
	if len(cluster.Hosts) != 2 {
		t.Errorf("Hosts = %v", cluster.Hosts)
	}
	if uint16(readConsistency) != uint16(gocql.Serial) {
		t.Errorf("readConsistency = %d, want SERIAL", uint16(readConsistency))
	}
}
