package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
	"telequal/pkg/batch"

	"github.com/redis/go-redis/v9"
)

// sampleAppendOperation is one pending RPUSH of an encoded sample.
type sampleAppendOperation struct {
	key    string
	data   []byte
	client *redis.Client
}

func (op *sampleAppendOperation) Execute(ctx context.Context) error {
	return op.client.RPush(ctx, op.key, op.data).Err()
}

// sampleBatchProcessor flushes pending appends through one pipeline.
type sampleBatchProcessor struct {
	client *redis.Client
}

func (p *sampleBatchProcessor) ProcessBatch(ctx context.Context, operations []batch.Operation) error {
	if len(operations) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, op := range operations {
		if appendOp, ok := op.(*sampleAppendOperation); ok {
			pipe.RPush(ctx, appendOp.key, appendOp.data)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// BatchedRedisSampleRepository wraps RedisSampleRepository with write
// batching. Appends are buffered and flushed by size or interval; reads
// flush first so Summarize always sees every ingested sample.
type BatchedRedisSampleRepository struct {
	baseRepo *RedisSampleRepository
	batcher  *batch.Batcher
}

func NewBatchedRedisSampleRepository(
	baseRepo *RedisSampleRepository,
	batchSize int,
	batchInterval time.Duration,
) *BatchedRedisSampleRepository {
	processor := &sampleBatchProcessor{client: baseRepo.client}
	batcher := batch.NewBatcher(batchSize, batchInterval, processor)

	return &BatchedRedisSampleRepository{
		baseRepo: baseRepo,
		batcher:  batcher,
	}
}

var _ ports.SampleRepository = (*BatchedRedisSampleRepository)(nil)

func (r *BatchedRedisSampleRepository) Append(ctx context.Context, sample *domain.MetricSample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	return r.batcher.Add(&sampleAppendOperation{
		key:    r.baseRepo.samplesKey(sample.SessionID),
		data:   data,
		client: r.baseRepo.client,
	})
}

func (r *BatchedRedisSampleRepository) FindBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.MetricSample, error) {
	if err := r.batcher.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush pending samples: %w", err)
	}
	return r.baseRepo.FindBySession(ctx, sessionID)
}

func (r *BatchedRedisSampleRepository) CountBySession(ctx context.Context, sessionID domain.SessionID) (int, error) {
	if err := r.batcher.Flush(ctx); err != nil {
		return 0, fmt.Errorf("failed to flush pending samples: %w", err)
	}
	return r.baseRepo.CountBySession(ctx, sessionID)
}

// PendingCount reports buffered appends awaiting flush.
func (r *BatchedRedisSampleRepository) PendingCount() int {
	return r.batcher.PendingCount()
}

// Close flushes and stops the batcher.
func (r *BatchedRedisSampleRepository) Close() {
	r.batcher.Stop()
}
