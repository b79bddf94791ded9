package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisSampleRepository struct {
	client *redis.Client
	prefix string
}

var _ ports.SampleRepository = (*RedisSampleRepository)(nil)

func NewRedisSampleRepository(client *redis.Client) *RedisSampleRepository {
	return &RedisSampleRepository{
		client: client,
		prefix: "telequal:session:",
	}
}

func (r *RedisSampleRepository) samplesKey(sessionID domain.SessionID) string {
	return fmt.Sprintf("%s%s:samples", r.prefix, sessionID)
}

func (r *RedisSampleRepository) Append(ctx context.Context, sample *domain.MetricSample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	key := r.samplesKey(sample.SessionID)
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append sample to Redis: %w", err)
	}

	return nil
}

func (r *RedisSampleRepository) FindBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.MetricSample, error) {
	key := r.samplesKey(sessionID)
	entries, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read samples from Redis: %w", err)
	}

	samples := make([]*domain.MetricSample, 0, len(entries))
	for _, entry := range entries {
		var sample domain.MetricSample
		if err := json.Unmarshal([]byte(entry), &sample); err != nil {
			// Skip entries that fail to decode rather than failing the
			// whole read; a corrupt entry must not hide the session.
			continue
		}
		samples = append(samples, &sample)
	}

	return samples, nil
}

func (r *RedisSampleRepository) CountBySession(ctx context.Context, sessionID domain.SessionID) (int, error) {
	key := r.samplesKey(sessionID)
	count, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count samples in Redis: %w", err)
	}
	return int(count), nil
}
