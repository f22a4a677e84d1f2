package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
)

const redisKeyPrefix = "ledger:document:"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps each document in a hash with version, data and
// updated_at fields. Saves run under WATCH so a concurrent writer aborts the
// transaction.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("NewRedisStore: ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (*Document, error) {
	fields, err := s.rdb.HGetAll(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("Load: %s: %w", key, domain.ErrNotFound)
	}

	version, err := strconv.ParseInt(fields["version"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("Load: version: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("Load: updated_at: %w", err)
	}
	return &Document{
		Key:       key,
		Version:   version,
		Data:      []byte(fields["data"]),
		UpdatedAt: updatedAt,
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, doc *Document) error {
	k := redisKeyPrefix + doc.Key
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, k, "version").Int64()
		if errors.Is(err, redis.Nil) {
			current, err = 0, nil
		}
		if err != nil {
			return err
		}
		if current != doc.Version-1 {
			return fmt.Errorf("%s at version %d, got %d: %w", doc.Key, current, doc.Version, domain.ErrVersionConflict)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k,
				"version", doc.Version,
				"data", doc.Data,
				"updated_at", doc.UpdatedAt.UTC().Format(time.RFC3339Nano),
			)
			return nil
		})
		return err
	}, k)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("Save: %s changed concurrently: %w", doc.Key, domain.ErrVersionConflict)
	case err != nil:
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
