package persistence

import (
	"context"
	"database/sql"
	"log"
	"time"

	"FairDeck/internal/observability"
)

// ArchiveWorker drains the archive channel and batch-writes rounds to
// Postgres. It runs off the action path: the game drops rounds rather
// than block when this worker falls behind, so the worker itself
// retries failed writes instead of discarding a batch it accepted.
type ArchiveWorker struct {
	writer       *ArchiveWriter
	db           *sql.DB
	inputChan    <-chan RoundRow
	batchSize    int
	flushTimeout time.Duration
	metrics      *observability.Metrics
}

func NewArchiveWorker(
	db *sql.DB,
	inputChan <-chan RoundRow,
	batchSize int,
	flushTimeout time.Duration,
	metrics *observability.Metrics,
) *ArchiveWorker {
	return &ArchiveWorker{
		writer:       NewArchiveWriter(db),
		db:           db,
		inputChan:    inputChan,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		metrics:      metrics,
	}
}

// Run batches incoming rounds and flushes when the batch fills or the
// flush timeout expires. Blocks until ctx is cancelled or the input
// channel closes.
func (aw *ArchiveWorker) Run(ctx context.Context) error {
	batch := make([]RoundRow, 0, aw.batchSize)

	timer := time.NewTimer(aw.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				if err := aw.flush(context.Background(), batch); err != nil {
					log.Printf("ERROR: final archive flush failed: %v", err)
				}
			}
			return ctx.Err()

		case row, ok := <-aw.inputChan:
			if !ok {
				if len(batch) > 0 {
					if err := aw.flush(context.Background(), batch); err != nil {
						log.Printf("ERROR: final archive flush failed: %v", err)
					}
				}
				return nil
			}

			batch = append(batch, row)
			if len(batch) >= aw.batchSize {
				if err := aw.flushWithRetry(ctx, batch); err != nil {
					log.Printf("ERROR: archive flush failed after retries: %v", err)
				}
				batch = batch[:0]
				timer.Reset(aw.flushTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				if err := aw.flushWithRetry(ctx, batch); err != nil {
					log.Printf("ERROR: archive timeout flush failed after retries: %v", err)
				}
				batch = batch[:0]
			}
			timer.Reset(aw.flushTimeout)
		}
	}
}

// flushWithRetry retries with exponential backoff until the write
// succeeds or the context is cancelled; cancellation triggers one last
// attempt so accepted rounds survive shutdown.
func (aw *ArchiveWorker) flushWithRetry(ctx context.Context, batch []RoundRow) error {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			log.Printf("WARN: archive retry attempt %d (backoff=%v, rounds=%d)",
				attempt, backoff, len(batch))
			select {
			case <-ctx.Done():
				return aw.flush(context.Background(), batch)
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		err := aw.flush(ctx, batch)
		if err == nil {
			if attempt > 0 {
				log.Printf("INFO: archive flush succeeded after %d retries", attempt)
			}
			return nil
		}

		if aw.metrics != nil {
			aw.metrics.ArchiveErrors.Inc()
		}
	}
}

func (aw *ArchiveWorker) flush(ctx context.Context, batch []RoundRow) error {
	start := time.Now()

	tx, err := aw.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := aw.writer.WriteRoundBatch(ctx, tx, batch); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if aw.metrics != nil {
		aw.metrics.ArchiveBatchDur.Observe(time.Since(start).Seconds())
		aw.metrics.ArchiveBatchSize.Observe(float64(len(batch)))
		aw.metrics.ArchiveRowsWritten.Add(float64(len(batch)))
	}
	return nil
}
