package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (r *recordingRepo) InsertAudit(_ context.Context, e *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *recordingRepo) snapshot() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}

type countingObserver struct {
	mu                      sync.Mutex
	queued, written, failed int
}

func (o *countingObserver) AuditQueued()  { o.mu.Lock(); o.queued++; o.mu.Unlock() }
func (o *countingObserver) AuditWritten() { o.mu.Lock(); o.written++; o.mu.Unlock() }
func (o *countingObserver) AuditFailed()  { o.mu.Lock(); o.failed++; o.mu.Unlock() }

func TestDispatcher_PreservesPerPatientOrder(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(3, repo, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	actions := []domain.AuditAction{domain.AuditCreate, domain.AuditUpdate, domain.AuditUpdate, domain.AuditDelete}
	for i, a := range actions {
		d.Enqueue(domain.AuditEvent{ID: string(rune('a' + i)), PatientID: 42, Action: a})
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(repo.snapshot()) < len(actions) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	d.Wait()

	got := repo.snapshot()
	if len(got) != len(actions) {
		t.Fatalf("expected %d events, got %d", len(actions), len(got))
	}
	for i, e := range got {
		if e.Action != actions[i] {
			t.Fatalf("event %d: expected %s, got %s", i, actions[i], e.Action)
		}
	}
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	repo := &recordingRepo{}
	obs := &countingObserver{}
	d := NewDispatcher(1, repo, obs, zerolog.Nop())

	for i := 0; i < 5; i++ {
		d.Enqueue(domain.AuditEvent{PatientID: int64(i)})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if n := len(repo.snapshot()); n != 5 {
		t.Fatalf("expected 5 drained events, got %d", n)
	}
	if obs.queued != 5 || obs.written != 5 {
		t.Fatalf("unexpected observer counts: %+v", obs)
	}
}

func TestDispatcher_WriteFailureIsCounted(t *testing.T) {
	repo := &recordingRepo{err: errors.New("db down")}
	obs := &countingObserver{}
	d := NewDispatcher(1, repo, obs, zerolog.Nop())

	d.Enqueue(domain.AuditEvent{PatientID: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if obs.failed != 1 || obs.written != 0 {
		t.Fatalf("expected one failure, got %+v", obs)
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingRepo{}, nil, zerolog.Nop())
	first := d.shardIndex(1234)
	for i := 0; i < 10; i++ {
		if d.shardIndex(1234) != first {
			t.Fatalf("shard index changed between calls")
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}
