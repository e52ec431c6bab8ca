package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crpt-gateway/crpt/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava contadores de submissão em hashes do Redis:
//
//	<prefix>:total            outcome -> n (cumulativo, não expira)
//	<prefix>:minute:<yyyymmddhhmm>   outcome -> n (expira após ttl)
//	<prefix>:doctype          <doc_type>:<outcome> -> n
//	<prefix>:waited_ms        waited_ms -> soma do tempo de espera no limitador
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl vale só para as séries por minuto.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "crpt:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) totalKey() string { return s.prefix + ":total" }

func (s *RedisStatsStore) minuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Outcome)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)

	if s.bucket == "minute" {
		key := s.minuteKey(at)
		pipe.HIncrBy(ctx, key, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	if dt := strings.TrimSpace(ev.DocType); dt != "" {
		pipe.HIncrBy(ctx, s.prefix+":doctype", dt+":"+field, 1)
	}
	if ev.Waited > 0 {
		pipe.HIncrBy(ctx, s.prefix+":waited_ms", "waited_ms", ev.Waited.Milliseconds())
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Totals lê o hash cumulativo por resultado.
func (s *RedisStatsStore) Totals(ctx context.Context) (map[domain.Outcome]int64, error) {
	raw, err := s.rdb.HGetAll(ctx, s.totalKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Outcome]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s=%q: %w", k, v, err)
		}
		out[domain.Outcome(k)] = n
	}
	return out, nil
}
