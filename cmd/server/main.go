package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/settlement-desk/internal/api"
	"github.com/ignite/settlement-desk/internal/config"
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/docstore/dynamo"
	"github.com/ignite/settlement-desk/internal/docstore/memory"
	"github.com/ignite/settlement-desk/internal/docstore/postgres"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/ledger"
	"github.com/ignite/settlement-desk/internal/payments"
	"github.com/ignite/settlement-desk/internal/pkg/distlock"
	"github.com/ignite/settlement-desk/internal/pkg/logger"
	"github.com/ignite/settlement-desk/internal/productivity"
	"github.com/ignite/settlement-desk/internal/reports"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

// openStore builds the configured document store. The *sql.DB is non-nil
// only for the postgres backend and doubles as the lock fallback.
func openStore(ctx context.Context, cfg config.DocStoreConfig) (docstore.Store, *sql.DB, error) {
	switch cfg.Type {
	case "memory":
		if cfg.LocalPath == "" {
			return memory.New(), nil, nil
		}
		s, err := memory.Open(cfg.LocalPath)
		return s, nil, err
	case "dynamo":
		s, err := dynamo.NewFromConfig(ctx, cfg)
		return s, nil, err
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("docstore.database_url is required for the postgres backend")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping %s: %w", extractHost(cfg.DatabaseURL), err)
		}
		s := postgres.New(db)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("postgres docstore ready", "host", extractHost(cfg.DatabaseURL))
		return s, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown docstore type %q", cfg.Type)
	}
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func openS3(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	if !cfg.Export.Enabled() {
		return nil, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Export.S3Region)}
	if profile := cfg.DocStore.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

func main() {
	configPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		fatal("failed to load config", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.ShouldRedact())
	if cfg.Logging.Format == "text" {
		logger.SetTextFormat()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, db, err := openStore(ctx, cfg.DocStore)
	if err != nil {
		fatal("failed to open document store", err)
	}
	if db != nil {
		defer db.Close()
	}
	logger.Info("document store ready", "type", cfg.DocStore.Type)

	redisClient, err := openRedis(ctx, cfg.Redis.URL)
	if err != nil {
		fatal("failed to connect to redis", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("redis approval locks enabled")
	} else if db == nil {
		logger.Warn("no redis or postgres configured, approval locks are process-local")
	}
	locks := distlock.Factory{Redis: redisClient, DB: db, TTL: cfg.Redis.LockTTL()}

	clock := istime.NewResolver(cfg.Reports.ZoneOffsetMinutes, nil)
	targets := ledger.New(store, clock)

	s3Client, err := openS3(ctx, *cfg)
	if err != nil {
		fatal("failed to configure report exports", err)
	}
	var exporter *reports.Exporter
	var bucketHeader api.BucketHeader
	if s3Client != nil {
		exporter = reports.NewExporter(s3Client, cfg.Export.S3Bucket, cfg.Export.Prefix, nil)
		bucketHeader = s3Client
		logger.Info("report exports enabled", "bucket", cfg.Export.S3Bucket, "prefix", cfg.Export.Prefix)
	}

	handlers := api.NewHandlers(api.Deps{
		Reports: reports.NewService(store, targets, clock, reports.Options{
			TopCities:     cfg.Reports.TopCities,
			TopStateBanks: cfg.Reports.TopStateBanks,
		}),
		Productivity: productivity.NewReader(store, clock),
		Payments:     payments.NewService(store, targets, locks, clock),
		Ledger:       targets,
		Exporter:     exporter,
		Health:       api.NewHealthChecker(store, redisClient, bucketHeader, cfg.Export.S3Bucket),
	})
	server := api.NewServer(cfg.Server, handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("server error", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
