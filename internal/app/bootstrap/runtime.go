package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/rehab-scheduler/cmd/mainconfig"
	appconfig "github.com/wolfman30/rehab-scheduler/internal/config"
	"github.com/wolfman30/rehab-scheduler/internal/export"
	"github.com/wolfman30/rehab-scheduler/internal/invoices"
	"github.com/wolfman30/rehab-scheduler/internal/schedule"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

// BuildCalendar generates the bookable window starting on today's date in
// the clinic's timezone.
func BuildCalendar(cfg *appconfig.Config, now time.Time) (*schedule.Calendar, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	dayCfg, err := cfg.DayConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if cfg.ScheduleWindowDays <= 0 {
		return nil, fmt.Errorf("bootstrap: SCHEDULE_WINDOW_DAYS must be positive")
	}
	return schedule.Generate(schedule.DateOf(now.In(loc)), cfg.ScheduleWindowDays, dayCfg), nil
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL, or returns nil when it is unset
// or unreachable.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *pgxpool.Pool {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres config invalid", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("postgres not available", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildInvoiceRepository prefers Postgres and falls back to memory.
func BuildInvoiceRepository(db invoices.DB, logger *logging.Logger) invoices.Repository {
	if logger == nil {
		logger = logging.Default()
	}
	if db == nil {
		logger.Warn("DATABASE_URL not set; invoices are kept in memory")
		return invoices.NewInMemoryRepository()
	}
	return invoices.NewPostgresRepository(db)
}

// BuildExportSink returns the S3 sink when a bucket is configured, otherwise
// a directory sink under EXPORT_DIR.
func BuildExportSink(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (export.Sink, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	bucket := strings.TrimSpace(cfg.ExportS3Bucket)
	if bucket == "" {
		logger.Info("exports write to local directory", "dir", cfg.ExportDir)
		return export.NewFileSink(cfg.ExportDir), nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	logger.Info("exports write to s3", "bucket", bucket, "prefix", cfg.ExportS3Prefix)
	return export.NewS3Sink(mainconfig.NewS3Client(awsCfg, cfg), bucket, cfg.ExportS3Prefix, logger), nil
}
