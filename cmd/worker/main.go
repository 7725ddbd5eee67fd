package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"scorebook/pipeline/internal/cache"
	"scorebook/pipeline/internal/client"
	"scorebook/pipeline/internal/config"
	"scorebook/pipeline/internal/export"
	"scorebook/pipeline/internal/ingest"
	"scorebook/pipeline/internal/metrics"
	"scorebook/pipeline/internal/repository"
	"scorebook/pipeline/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting Scorebook Pipeline Worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize score feed client
	feed := client.NewClient(
		cfg.ScoreFeedBaseURL,
		cfg.ScoreFeedAPIKey,
		cfg.ScoreFeedTimeout,
	)
	log.Info().Msg("Score feed client initialized")

	// Initialize database connection
	dbConfig := repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}

	db, err := repository.NewDatabase(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize Redis cache
	var redisCache *cache.Cache
	if cfg.CacheEnabled {
		redisCache, err = cache.NewCache(ctx, cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			defer redisCache.Close()
			log.Info().Msg("Redis cache connected")
		}
	}

	// Initialize artifact exporter
	var exporter *export.Exporter
	if cfg.ExportEnabled {
		exporter, err = export.NewExporter(cfg.ArtifactDir)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to prepare artifact directory - continuing without export")
		} else {
			log.Info().Str("dir", cfg.ArtifactDir).Msg("Artifact exporter ready")
		}
	}

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))
	}

	// Update system metrics
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				stat := db.Pool.Stat()
				metrics.UpdateDBConnectionStats(stat.AcquiredConns(), stat.IdleConns())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Create the pipeline runner and its scheduler
	runner := ingest.NewRunner(cfg, feed, db, redisCache, exporter)
	sched := scheduler.NewScheduler(cfg, runner.Run)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Run initial pipeline pass if enabled
	if cfg.InitialRunEnabled {
		log.Info().Msg("Running initial pipeline pass...")
		if err := sched.RunNow(ctx, "initial"); err != nil {
			log.Error().Err(err).Msg("Initial run failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial run completed successfully")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string) {
	http.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
