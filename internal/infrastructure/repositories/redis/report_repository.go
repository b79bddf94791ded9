package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const reportStartIndexKey = "telequal:reports:by_start"

type RedisReportRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisReportRepository(client *redis.Client) ports.ReportRepository {
	return &RedisReportRepository{
		client: client,
		prefix: "telequal:report:",
	}
}

func (r *RedisReportRepository) reportKey(sessionID domain.SessionID) string {
	return r.prefix + string(sessionID)
}

func (r *RedisReportRepository) Save(ctx context.Context, report *domain.SessionQualityReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.reportKey(report.SessionID), data, 0)
	pipe.ZAdd(ctx, reportStartIndexKey, redis.Z{
		Score:  float64(report.StartTime.Unix()),
		Member: string(report.SessionID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save report in Redis: %w", err)
	}

	return nil
}

func (r *RedisReportRepository) GetBySession(ctx context.Context, sessionID domain.SessionID) (*domain.SessionQualityReport, error) {
	data, err := r.client.Get(ctx, r.reportKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report from Redis: %w", err)
	}

	var report domain.SessionQualityReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

func (r *RedisReportRepository) FindByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.SessionQualityReport, error) {
	sessionIDs, err := r.client.ZRangeByScore(ctx, reportStartIndexKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(start.Unix(), 10),
		Max: strconv.FormatInt(end.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query report index from Redis: %w", err)
	}

	var reports []*domain.SessionQualityReport
	for _, sessionID := range sessionIDs {
		report, err := r.GetBySession(ctx, domain.SessionID(sessionID))
		if err != nil {
			// Skip index entries whose report has been removed.
			continue
		}
		reports = append(reports, report)
	}

	return reports, nil
}
