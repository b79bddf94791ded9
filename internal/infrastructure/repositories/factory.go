package repositories

import (
	"context"
	"time"

	"telequal/internal/core/ports"
	"telequal/internal/infrastructure/repositories/memory"
	redisrepo "telequal/internal/infrastructure/repositories/redis"
	"telequal/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis      bool
	redisClient   *redis.Client
	batchSize     int
	batchInterval time.Duration
	logger        *zap.SugaredLogger

	batchedSamples *redisrepo.BatchedRedisSampleRepository
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis:      cfg.Redis.Enabled,
		batchSize:     cfg.Persistence.BatchSize,
		batchInterval: cfg.Persistence.BatchInterval,
		logger:        logger,
	}

	// Try to connect to Redis if enabled
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateSampleRepository creates the sample store. The Redis variant is
// wrapped with write batching when a batch size is configured.
func (f *RepositoryFactory) CreateSampleRepository() ports.SampleRepository {
	if f.useRedis && f.redisClient != nil {
		base := redisrepo.NewRedisSampleRepository(f.redisClient)
		if f.batchSize > 1 {
			f.batchedSamples = redisrepo.NewBatchedRedisSampleRepository(base, f.batchSize, f.batchInterval)
			return f.batchedSamples
		}
		return base
	}
	return memory.NewMemorySampleRepository()
}

// CreateReportRepository creates a report repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateReportRepository() ports.ReportRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisReportRepository(f.redisClient)
	}
	return memory.NewMemoryReportRepository()
}

// CreateAlertRepository creates an alert repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateAlertRepository() ports.AlertRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisAlertRepository(f.redisClient)
	}
	return memory.NewMemoryAlertRepository()
}

// RedisClient exposes the shared client for components that publish
// through Redis directly, such as the pub/sub notifier. Nil when the
// memory fallback is active.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	if f.useRedis {
		return f.redisClient
	}
	return nil
}

// Close flushes pending batches and closes the Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.batchedSamples != nil {
		f.batchedSamples.Close()
	}
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
