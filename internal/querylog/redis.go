package querylog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
)

// RedisConfig configures the Redis store.
type RedisConfig struct {
	URL string
	Key string
	// Retention trims records older than this on every append; 0 keeps all.
	Retention time.Duration
}

// RedisStore keeps records in a sorted set scored by timestamp in
// milliseconds, so window reads are a single range query.
type RedisStore struct {
	client    *redis.Client
	key       string
	retention time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return newRedisStore(client, cfg), nil
}

func newRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	if cfg.Key == "" {
		cfg.Key = "govai:queries"
	}
	return &RedisStore{
		client:    client,
		key:       cfg.Key,
		retention: cfg.Retention,
	}
}

// Append adds r and trims expired records in one transaction.
func (s *RedisStore) Append(ctx context.Context, r Record) error {
	member, err := json.Marshal(r)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeLogSink, "failed to encode record", err)
	}

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.key, redis.Z{
		Score:  float64(r.Timestamp.UnixMilli()),
		Member: string(member),
	})
	if s.retention > 0 {
		cutoff := time.Now().Add(-s.retention).UnixMilli()
		pipe.ZRemRangeByScore(ctx, s.key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeLogSink, "failed to append record to redis", err)
	}
	return nil
}

// ReadAll implements Store.
func (s *RedisStore) ReadAll(ctx context.Context, w Window) (ReadResult, error) {
	from := "-inf"
	if !w.IsAll() {
		from = strconv.FormatInt(w.Since(time.Now()).UnixMilli(), 10)
	}

	members, err := s.client.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min: from,
		Max: "+inf",
	}).Result()
	if err != nil {
		return ReadResult{}, apperrors.Wrap(apperrors.CodeLogSink, "failed to read records from redis", err)
	}

	res := ReadResult{Records: make([]Record, 0, len(members))}
	for _, m := range members {
		r, err := decodeRecord([]byte(m))
		if err != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, r)
	}
	return res, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
