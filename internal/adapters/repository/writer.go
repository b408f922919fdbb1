package repository

import (
	"context"
	"sync"
	"time"

	"github.com/smuotoe/geoelevate/pkg/logger"
	"github.com/smuotoe/geoelevate/pkg/metrics"
)

// Default writer configuration constants.
const (
	defaultWriteBuffer   = 1024
	defaultWriterWorkers = 2
	writerDrainTimeout   = 5 * time.Second
)

// WriterOption applies a configuration option to the AnswerWriter.
type WriterOption func(*AnswerWriter)

// WithWriteBuffer bounds the pending-row queue.
func WithWriteBuffer(n int) WriterOption {
	return func(w *AnswerWriter) {
		if n > 0 {
			w.buffer = n
		}
	}
}

// WithWriterWorkers sets the number of draining goroutines.
func WithWriterWorkers(n int) WriterOption {
	return func(w *AnswerWriter) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithWriterLogger sets a custom logger.
func WithWriterLogger(l logger.Logger) WriterOption {
	return func(w *AnswerWriter) {
		if l != nil {
			w.logger = l
		}
	}
}

// AnswerWriter drains answer-log rows to a Gateway asynchronously so a slow
// or failing store never stalls in-memory match progress. Failed writes are
// logged and dropped; the answer log is best-effort by contract.
type AnswerWriter struct {
	gateway Gateway
	rows    chan AnswerRow
	buffer  int
	workers int

	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup

	logger logger.Logger
}

// NewAnswerWriter creates a writer in front of gateway.
func NewAnswerWriter(gateway Gateway, opts ...WriterOption) *AnswerWriter {
	w := &AnswerWriter{
		gateway: gateway,
		buffer:  defaultWriteBuffer,
		workers: defaultWriterWorkers,
		logger:  logger.Get().Named("answer-writer"),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.rows = make(chan AnswerRow, w.buffer)
	return w
}

// Start launches the draining workers. Idempotent.
func (w *AnswerWriter) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		for i := 0; i < w.workers; i++ {
			w.wg.Add(1)
			go w.run(ctx)
		}
	})
}

func (w *AnswerWriter) run(ctx context.Context) {
	defer w.wg.Done()
	for row := range w.rows {
		if err := w.gateway.RecordAnswer(ctx, row); err != nil {
			metrics.RecordPersistenceError("record_answer")
			w.logger.Error(ctx, "answer log write failed",
				logger.Int64("matchID", row.MatchID),
				logger.Int64("identity", row.Identity),
				logger.Int("questionIndex", row.QuestionIndex),
				logger.Error(err),
			)
		}
	}
}

// RecordAnswer enqueues a row without blocking. A full queue drops the row
// with a log line; answer-log writes are best-effort.
func (w *AnswerWriter) RecordAnswer(ctx context.Context, row AnswerRow) error {
	select {
	case w.rows <- row:
		return nil
	default:
		metrics.RecordPersistenceError("record_answer_dropped")
		w.logger.Warn(ctx, "answer log queue full; dropping row",
			logger.Int64("matchID", row.MatchID),
		)
		return nil
	}
}

// Close stops accepting rows and waits for the queue to drain.
func (w *AnswerWriter) Close() {
	w.closeOnce.Do(func() {
		close(w.rows)

		done := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(writerDrainTimeout):
			w.logger.Warn(context.Background(), "answer writer drain timed out")
		}
	})
}
