// Package numbering issues sequential lot numbers of the form
// {prefix}{yyMMdd}{seq:04d}, e.g. LOT2608310001. The daily counter lives in
// Redis when a client is configured; otherwise it falls back to a keyed
// counter row in the database, incremented inside a transaction.
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mes.GO/config"
)

// CounterStore is the database fallback for the daily sequence. Both the
// GORM counter repository and the in-memory store satisfy it.
type CounterStore interface {
	NextSequence(ctx context.Context, key string) (int64, error)
}

type Service struct {
	prefix   string
	redis    *redis.Client
	counters CounterStore
	now      func() time.Time
}

func NewService(prefix string, counters CounterStore) *Service {
	if prefix == "" {
		prefix = "LOT"
	}
	return &Service{
		prefix:   prefix,
		redis:    config.RedisClient,
		counters: counters,
		now:      time.Now,
	}
}

// key is scoped per prefix and day so sequences restart each morning.
func (s *Service) key(day time.Time) string {
	return fmt.Sprintf("seq:%s:%s", s.prefix, day.Format("060102"))
}

// Next issues the next lot number for today.
func (s *Service) Next(ctx context.Context) (string, error) {
	day := s.now()

	var seq int64
	var err error
	if s.redis != nil {
		seq, err = s.redis.Incr(ctx, s.key(day)).Result()
		if err == nil {
			// Stale daily keys expire on their own.
			s.redis.Expire(ctx, s.key(day), 48*time.Hour)
		}
	}
	if s.redis == nil || err != nil {
		seq, err = s.counters.NextSequence(ctx, s.key(day))
		if err != nil {
			return "", fmt.Errorf("numbering: next sequence: %w", err)
		}
	}

	return fmt.Sprintf("%s%s%04d", s.prefix, day.Format("060102"), seq), nil
}
