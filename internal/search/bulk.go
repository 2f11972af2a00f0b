package search

import (
	"context"
	"encoding/json"
	"time"
)

// BatchConfig bounds a bulk-insertion batch by both document count and
// serialized byte size, and configures the retry/backoff policy for
// transient batch failures — grounded on the teacher's
// internal/services/sync_service.go, which batches writes to Typesense
// and retries with an outcome-counter reduction; here the "fetch from a
// sibling HTTP service" half of that file is dropped (ingestion reads
// local files, per spec.md §4.D) and only the batch/retry/counter shape
// survives.
type BatchConfig struct {
	MaxDocs       int
	MaxBytes      int
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
}

// DefaultBatchConfig matches the teacher's SYNC_BATCH_SIZE default of
// 100 documents, with a 5 MiB byte cap and exponential backoff bounded
// at five retries.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxDocs:      100,
		MaxBytes:     5 << 20,
		MaxRetries:   5,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

func docSize(d Doc) int {
	b, err := json.Marshal(map[string]any(d))
	if err != nil {
		return 0
	}
	return len(b)
}

// BulkInsert drains docs (a channel, matching REDESIGN FLAG 3/4's
// bounded-channel pipeline) into index through ins, batching by count
// and byte size, retrying each batch with exponential backoff up to
// cfg.MaxRetries, and reducing every batch's outcome into one total.
// The run fails only if cfg's retries are exhausted on a batch that
// produced zero successes, or if a global error (e.g. an unknown
// collection) is returned — per-item failures inside an otherwise
// successful batch are recorded in Errors, never aborted (§7 kind 4).
func BulkInsert(ctx context.Context, ins Inserter, index string, docs <-chan Doc, cfg BatchConfig) (BulkOutcome, error) {
	var total BulkOutcome
	var batch []Doc
	batchBytes := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		outcome, err := insertWithRetry(ctx, ins, index, batch, cfg)
		if err != nil {
			return err
		}
		total.Add(outcome)
		batch = batch[:0]
		batchBytes = 0
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case d, ok := <-docs:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, d)
			batchBytes += docSize(d)
			if len(batch) >= cfg.MaxDocs || batchBytes >= cfg.MaxBytes {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

func insertWithRetry(ctx context.Context, ins Inserter, index string, batch []Doc, cfg BatchConfig) (BulkOutcome, error) {
	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		outcome, err := ins.InsertBatch(ctx, index, batch)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		if attempt == cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return BulkOutcome{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return BulkOutcome{}, lastErr
}
