package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key the Redis backend writes.
const DefaultRedisPrefix = "jobtrack:"

// RedisStore implements Store on a Redis server. Jobs live in one hash keyed
// by job key with JSON values; settings are a single JSON string.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore wraps an existing client. An empty prefix means
// DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// OpenRedis connects to addr and verifies the server answers PING.
func OpenRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) jobsKey() string     { return s.prefix + "jobs" }
func (s *RedisStore) settingsKey() string { return s.prefix + "settings" }

type hashGetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

func (s *RedisStore) getFrom(ctx context.Context, c hashGetter, jobKey string) (*Job, bool, error) {
	val, err := c.HGet(ctx, s.jobsKey(), jobKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get job %s: %w", jobKey, err)
	}

	var j Job
	if err := json.Unmarshal([]byte(val), &j); err != nil {
		return nil, false, fmt.Errorf("decode job %s: %w", jobKey, err)
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	return &j, true, nil
}

// Get returns the job stored under jobKey.
func (s *RedisStore) Get(ctx context.Context, jobKey string) (*Job, bool, error) {
	return s.getFrom(ctx, s.client, jobKey)
}

// FindByCanonicalURL scans every job for one whose canonical URL equals
// canonicalURL. A second match yields ErrDuplicateCanonicalURL.
func (s *RedisStore) FindByCanonicalURL(ctx context.Context, canonicalURL string) (*Job, bool, error) {
	jobs, err := s.all(ctx)
	if err != nil {
		return nil, false, err
	}

	var found *Job
	for i := range jobs {
		if jobs[i].CanonicalURL != canonicalURL {
			continue
		}
		if found != nil {
			return nil, false, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateCanonicalURL, canonicalURL, found.JobKey, jobs[i].JobKey)
		}
		found = &jobs[i]
	}
	return found, found != nil, nil
}

// Upsert writes job under WATCH so a concurrent writer to the jobs hash
// makes this call fail instead of losing an update.
func (s *RedisStore) Upsert(ctx context.Context, job *Job) (*Job, error) {
	var merged *Job

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		existing, _, err := s.getFrom(ctx, tx, job.JobKey)
		if err != nil {
			return err
		}

		merged, err = mergeForUpsert(existing, job, s.now())
		if err != nil {
			return err
		}

		payload, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode job %s: %w", merged.JobKey, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.jobsKey(), merged.JobKey, payload)
			return nil
		})
		return err
	}, s.jobsKey())

	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("upsert job %s: concurrent modification: %w", job.JobKey, err)
	}
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Delete removes the job stored under jobKey and reports whether it existed.
func (s *RedisStore) Delete(ctx context.Context, jobKey string) (bool, error) {
	n, err := s.client.HDel(ctx, s.jobsKey(), jobKey).Result()
	if err != nil {
		return false, fmt.Errorf("delete job %s: %w", jobKey, err)
	}
	return n > 0, nil
}

// List loads every job and filters, sorts and paginates in memory.
func (s *RedisStore) List(ctx context.Context, f JobFilter) ([]Job, error) {
	jobs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return filterJobs(jobs, f)
}

func (s *RedisStore) all(ctx context.Context) ([]Job, error) {
	vals, err := s.client.HVals(ctx, s.jobsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}

	jobs := make([]Job, 0, len(vals))
	for _, v := range vals {
		var j Job
		if err := json.Unmarshal([]byte(v), &j); err != nil {
			return nil, fmt.Errorf("decode job: %w", err)
		}
		if j.Tags == nil {
			j.Tags = []string{}
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// GetSettings returns the stored settings or DefaultSettings.
func (s *RedisStore) GetSettings(ctx context.Context) (*Settings, error) {
	val, err := s.client.Get(ctx, s.settingsKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal([]byte(val), settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if settings.StatusColors == nil {
		settings.StatusColors = map[Status]string{}
	}
	return settings, nil
}

// SaveSettings replaces the stored settings.
func (s *RedisStore) SaveSettings(ctx context.Context, settings *Settings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.client.Set(ctx, s.settingsKey(), payload, 0).Err(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// GetStats aggregates over every stored job.
func (s *RedisStore) GetStats(ctx context.Context) (*Stats, error) {
	jobs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return computeStats(jobs), nil
}

// PurgeAll deletes the jobs hash and the settings key.
func (s *RedisStore) PurgeAll(ctx context.Context) error {
	if err := s.client.Del(ctx, s.jobsKey(), s.settingsKey()).Err(); err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
