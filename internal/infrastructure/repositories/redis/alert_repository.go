package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisAlertRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisAlertRepository(client *redis.Client) ports.AlertRepository {
	return &RedisAlertRepository{
		client: client,
		prefix: "telequal:alert:",
	}
}

func (r *RedisAlertRepository) recordKey(sessionID domain.SessionID, conditionKey string) string {
	return fmt.Sprintf("%s%s:%s", r.prefix, sessionID, conditionKey)
}

func (r *RedisAlertRepository) sessionAlertsKey(sessionID domain.SessionID) string {
	return fmt.Sprintf("telequal:session:%s:alerts", sessionID)
}

func (r *RedisAlertRepository) Get(ctx context.Context, sessionID domain.SessionID, conditionKey string) (*domain.AlertRecord, error) {
	data, err := r.client.Get(ctx, r.recordKey(sessionID, conditionKey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert record from Redis: %w", err)
	}

	var record domain.AlertRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert record: %w", err)
	}

	return &record, nil
}

func (r *RedisAlertRepository) Put(ctx context.Context, record *domain.AlertRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal alert record: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.recordKey(record.SessionID, record.ConditionKey), data, 0)
	pipe.SAdd(ctx, r.sessionAlertsKey(record.SessionID), record.ConditionKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put alert record in Redis: %w", err)
	}

	return nil
}

func (r *RedisAlertRepository) Delete(ctx context.Context, sessionID domain.SessionID, conditionKey string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.recordKey(sessionID, conditionKey))
	pipe.SRem(ctx, r.sessionAlertsKey(sessionID), conditionKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete alert record from Redis: %w", err)
	}

	return nil
}

func (r *RedisAlertRepository) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.AlertRecord, error) {
	conditionKeys, err := r.client.SMembers(ctx, r.sessionAlertsKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list session alerts from Redis: %w", err)
	}

	var records []*domain.AlertRecord
	for _, conditionKey := range conditionKeys {
		record, err := r.Get(ctx, sessionID, conditionKey)
		if err != nil || record == nil {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}
