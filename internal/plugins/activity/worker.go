package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/keyxmakerx/bizledger/internal/metrics"
)

// defaultQueueSize is used when the configured queue size is not positive.
const defaultQueueSize = 1000

// writeTimeout bounds a single queued write.
const writeTimeout = 5 * time.Second

// RecordWorker buffers change records and writes them from one goroutine
// so callers on the request path never wait on the database.
type RecordWorker struct {
	service ActivityService
	jobs    chan *ChangeRecord
}

// NewRecordWorker creates a worker with the given queue capacity.
func NewRecordWorker(service ActivityService, queueSize int) *RecordWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &RecordWorker{
		service: service,
		jobs:    make(chan *ChangeRecord, queueSize),
	}
}

// Enqueue adds a record. Non-blocking; returns false and drops the record
// when the queue is full.
func (w *RecordWorker) Enqueue(rec *ChangeRecord) bool {
	select {
	case w.jobs <- rec:
		metrics.QueueDepth.Set(float64(len(w.jobs)))
		return true
	default:
		metrics.QueueDropped.Inc()
		slog.Warn("activity queue full, dropping record",
			slog.String("collection", string(rec.Collection)),
			slog.String("action", string(rec.Action)),
		)
		return false
	}
}

// Run processes records until ctx is cancelled, then drains what is left.
// ctx only controls the loop; writes never inherit its cancellation.
func (w *RecordWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case rec := <-w.jobs:
			w.process(rec)
		}
	}
}

func (w *RecordWorker) drain() {
	for {
		select {
		case rec := <-w.jobs:
			w.process(rec)
		default:
			return
		}
	}
}

// process writes one record under its own timeout.
func (w *RecordWorker) process(rec *ChangeRecord) {
	metrics.QueueDepth.Set(float64(len(w.jobs)))

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := w.service.Log(ctx, rec); err != nil {
		slog.Warn("activity record write failed",
			slog.String("id", rec.ID),
			slog.String("collection", string(rec.Collection)),
			slog.Any("error", err),
		)
	}
}
