package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Observer receives dispatcher signals, typically prometheus collectors.
type Observer interface {
	AuditQueued()
	AuditWritten()
	AuditFailed()
}

type nopObserver struct{}

func (nopObserver) AuditQueued()  {}
func (nopObserver) AuditWritten() {}
func (nopObserver) AuditFailed()  {}

// Dispatcher persists audit events on a fixed set of workers. Events are
// sharded by patient id so the trail of one record is written in order.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	obs     Observer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. obs may be nil.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, obs Observer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if obs == nil {
		obs = nopObserver{}
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		obs:     obs,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands the event to the worker owning its patient id. When that
// worker's buffer is full the event is dropped and logged rather than
// blocking the request path.
func (d *Dispatcher) Enqueue(event domain.AuditEvent) {
	select {
	case d.workers[d.shardIndex(event.PatientID)] <- event:
		d.obs.AuditQueued()
	default:
		d.obs.AuditFailed()
		d.log.Warn().
			Str("audit_id", event.ID).
			Int64("patient_id", event.PatientID).
			Msg("audit queue full, event dropped")
	}
}

func (d *Dispatcher) shardIndex(patientID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(patientID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			d.write(context.Background(), id, event)
		}
	}
}

// drain flushes whatever is still buffered after shutdown was requested.
func (d *Dispatcher) drain(id int, ch <-chan domain.AuditEvent) {
	for {
		select {
		case event := <-ch:
			d.write(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, event domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := d.repo.InsertAudit(ctx, &event); err != nil {
		d.obs.AuditFailed()
		d.log.Error().Err(err).
			Str("audit_id", event.ID).
			Int64("patient_id", event.PatientID).
			Int("worker_id", id).
			Msg("audit write failed")
		return
	}
	d.obs.AuditWritten()
}
