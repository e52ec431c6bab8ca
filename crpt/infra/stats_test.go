package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"crpt-gateway/crpt/domain"

	"github.com/redis/go-redis/v9"
)

func TestMemoryStatsStore_CountsByOutcomeAndDocType(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackDocTypes(true))
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSubmitted, DocType: "LP_INTRODUCE_GOODS", Waited: 10 * time.Millisecond})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSubmitted, DocType: "LP_INTRODUCE_GOODS"})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeFailed, DocType: "OTHER", Waited: 5 * time.Millisecond})

	if got := s.Count(domain.OutcomeSubmitted); got != 2 {
		t.Fatalf("expected 2 submitted, got %d", got)
	}
	if got := s.Count(domain.OutcomeFailed); got != 1 {
		t.Fatalf("expected 1 failed, got %d", got)
	}
	if got := s.Total(); got != 3 {
		t.Fatalf("expected total 3, got %d", got)
	}
	if got := s.TotalWaited(); got != 15*time.Millisecond {
		t.Fatalf("expected 15ms waited, got %s", got)
	}
	if got := s.ByDocType()["LP_INTRODUCE_GOODS"]; got != 2 {
		t.Fatalf("expected 2 for doc type, got %d", got)
	}
	if got := s.Last().Outcome; got != domain.OutcomeFailed {
		t.Fatalf("expected last outcome failed, got %s", got)
	}
}

func TestMemoryStatsStore_DocTypesOffByDefault(t *testing.T) {
	s := NewMemoryStatsStore()
	_ = s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeRejected, DocType: "X"})
	if len(s.ByDocType()) != 0 {
		t.Fatalf("expected doc types not tracked")
	}
}

type failingStats struct{ calls int }

func (f *failingStats) Record(context.Context, domain.StatsEvent) error {
	f.calls++
	return errors.New("boom")
}

func TestMultiStats_RecordsEverywhereAndReturnsFirstError(t *testing.T) {
	mem := NewMemoryStatsStore()
	bad := &failingStats{}
	m := MultiStats{bad, nil, mem}

	err := m.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeSubmitted})
	if err == nil {
		t.Fatalf("expected error from failing store")
	}
	if bad.calls != 1 || mem.Total() != 1 {
		t.Fatalf("expected every store to be called, got bad=%d mem=%d", bad.calls, mem.Total())
	}
}

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	var s *RedisStatsStore
	if err := s.Record(context.Background(), domain.StatsEvent{}); err != nil {
		t.Fatalf("expected nil store to be a no-op, got %v", err)
	}
	s = NewRedisStatsStore(nil)
	if err := s.Record(context.Background(), domain.StatsEvent{}); err != nil {
		t.Fatalf("expected nil client to be a no-op, got %v", err)
	}
}

func TestRedisStatsStore_KeysUsePrefixAndMinuteBucket(t *testing.T) {
	s := NewRedisStatsStore(nil, WithStatsPrefix(":crpt:test:"))
	at := time.Date(2024, time.March, 5, 14, 7, 59, 0, time.UTC)

	if got := s.totalKey(); got != "crpt:test:total" {
		t.Fatalf("unexpected total key %q", got)
	}
	if got := s.minuteKey(at); got != "crpt:test:minute:202403051407" {
		t.Fatalf("unexpected minute key %q", got)
	}
}

func TestRedisStatsStore_UnreachableServerReturnsError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	s := NewRedisStatsStore(rdb, WithStatsBucket("none"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSubmitted}); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
}
