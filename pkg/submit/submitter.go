package submit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/pkg/jobs"
)

// transportAttempts bounds whole-batch retries on transport failure.
const transportAttempts = 3

// Stats summarizes what a Submitter delivered over its lifetime.
type Stats struct {
	Forwarded     int
	Created       int
	Skipped       int
	Rejected      int
	FailedBatches int
}

// FailedBatch records a batch that never got a usable response so its
// records can be traced. The store still holds them; nothing is lost.
type FailedBatch struct {
	URLs     []string
	Err      string
	FailedAt time.Time
}

// Submitter accumulates forwarded records and ships them in batches.
// Not safe for concurrent use; the orchestrator owns one per run.
type Submitter struct {
	client    *Client
	source    string
	batchSize int
	logger    *zap.Logger
	backoff   time.Duration

	pending []jobs.Payload
	stats   Stats
	failed  []FailedBatch
}

// NewSubmitter returns a Submitter that flushes every batchSize
// records. Call Flush before discarding it to deliver the remainder.
func NewSubmitter(client *Client, source string, batchSize int, logger *zap.Logger) *Submitter {
	if batchSize <= 0 {
		batchSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		client:    client,
		source:    source,
		batchSize: batchSize,
		logger:    logger,
		backoff:   time.Second,
	}
}

// Add queues a forwarded record, flushing when the batch fills.
func (s *Submitter) Add(ctx context.Context, rec *jobs.Record) error {
	s.pending = append(s.pending, rec.Payload(s.source))
	s.stats.Forwarded++
	if len(s.pending) >= s.batchSize {
		return s.Flush(ctx)
	}
	return nil
}

// Flush delivers any pending records. Transport failures are retried
// with backoff; a batch that still fails is recorded and dropped so
// the run can continue. Only context cancellation propagates.
func (s *Submitter) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	batch := s.pending
	s.pending = nil

	resp, err := s.deliver(ctx, batch)
	if err != nil {
		if ctx.Err() != nil {
			// Undo the drain so a later flush can still try.
			s.pending = batch
			return ctx.Err()
		}
		s.recordFailure(batch, err)
		return nil
	}

	s.stats.Created += resp.Created
	s.stats.Skipped += resp.Skipped
	s.stats.Rejected += len(resp.Rejected)

	// Downstream rejections are meaningful; log them and move on. No
	// retry within the run.
	for _, rej := range resp.Rejected {
		s.logger.Warn("record rejected downstream",
			zap.String("source_url", rej.URL),
			zap.String("reason", rej.Reason))
	}

	s.logger.Info("batch delivered",
		zap.Int("size", len(batch)),
		zap.Int("created", resp.Created),
		zap.Int("skipped", resp.Skipped),
		zap.Int("rejected", len(resp.Rejected)))
	return nil
}

// Stats returns delivery totals so far.
func (s *Submitter) Stats() Stats {
	return s.stats
}

// FailedBatches returns the batches that never got a usable response.
func (s *Submitter) FailedBatches() []FailedBatch {
	return s.failed
}

func (s *Submitter) deliver(ctx context.Context, batch []jobs.Payload) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= transportAttempts; attempt++ {
		resp, err := s.client.SubmitBatch(ctx, batch)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
		s.logger.Warn("batch delivery failed",
			zap.Int("attempt", attempt),
			zap.Int("size", len(batch)),
			zap.Error(err))
		if attempt < transportAttempts {
			select {
			case <-time.After(s.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func (s *Submitter) recordFailure(batch []jobs.Payload, err error) {
	urls := make([]string, len(batch))
	for i, p := range batch {
		urls[i] = p.SourceURL
	}
	s.failed = append(s.failed, FailedBatch{
		URLs:     urls,
		Err:      err.Error(),
		FailedAt: time.Now().UTC(),
	})
	s.stats.FailedBatches++
	s.logger.Error("batch delivery abandoned",
		zap.Int("size", len(batch)),
		zap.Strings("source_urls", urls),
		zap.Error(err))
}
