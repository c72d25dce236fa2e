// Package redisstore shares session memory between API replicas.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"library-assistant-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "assistant:session:"
	maxRetries = 5
)

type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func (r *SessionRepository) Load(ctx context.Context, key string) (*store.Session, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

// Update runs fn under optimistic locking; a concurrent writer on the same
// key causes a reload and another attempt.
func (r *SessionRepository) Update(ctx context.Context, key string, fn func(s *store.Session)) error {
	rk := keyPrefix + key

	txf := func(tx *redis.Tx) error {
		s := store.NewSession(key)
		raw, err := tx.Get(ctx, rk).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if s, err = decode(raw); err != nil {
				return err
			}
		}

		fn(s)
		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, payload, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("session %s: too many concurrent writers", key)
}

func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, keyPrefix+key).Err()
}

func decode(raw []byte) (*store.Session, error) {
	var s store.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
