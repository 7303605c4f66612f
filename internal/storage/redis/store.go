package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aieni/internal/storage"
)

// Cmdable is the subset of go-redis commands the store issues.
// *redis.Client satisfies it.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// maxMutateAttempts bounds the WATCH retries of one Mutate.
const maxMutateAttempts = 10

// Store keeps collection documents as plain Redis strings without expiry.
type Store struct {
	client Cmdable
	prefix string
}

// New returns a store that namespaces keys with prefix (may be empty).
func New(client Cmdable, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Mutate runs fn under WATCH and writes in MULTI/EXEC. A concurrent write to
// the key fails the transaction and fn is run again on the new value.
func (s *Store) Mutate(ctx context.Context, key string, fn storage.MutateFunc) error {
	full := s.prefix + key
	var fnErr error
	txf := func(tx *redis.Tx) error {
		fnErr = nil
		v, err := tx.Get(ctx, full).Bytes()
		ok := true
		if errors.Is(err, redis.Nil) {
			v, ok = nil, false
		} else if err != nil {
			return fmt.Errorf("redis get %s: %w", key, err)
		}
		next, err := fn(v, ok)
		if err != nil {
			fnErr = err
			return err
		}
		if next == nil {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for range maxMutateAttempts {
		err := s.client.Watch(ctx, txf, full)
		if fnErr != nil {
			return fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis mutate %s: %w", key, err)
		}
		return nil
	}
	return fmt.Errorf("redis mutate %s: %w", key, redis.TxFailedErr)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
