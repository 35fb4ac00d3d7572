package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hotghost/internal/assets"
	"hotghost/internal/database"
	"hotghost/internal/filesystem"
	"hotghost/internal/generator"
	"hotghost/internal/handlers"
	"hotghost/internal/logging"
	"hotghost/internal/media"
	"hotghost/internal/memory"
	"hotghost/internal/metrics"
	"hotghost/internal/middleware"
	"hotghost/internal/startup"
	"hotghost/internal/transcoder"
)

const maintenanceInterval = time.Minute

func main() {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, HEIC/AVIF uploads will be rejected: %v", err)
	}
	defer media.ShutdownVips()

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("database close: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	text := assets.TextEngine(config.AssetsDir)
	store := assets.New(config.AssetsDir, text)
	startup.LogAssetStatus(store.Check())

	runner := transcoder.NewExecRunner()
	engine := transcoder.New(transcoder.Config{
		FFmpegPath:  config.FFmpegPath,
		FFprobePath: config.FFprobePath,
		WorkDir:     config.WorkDir,
	}, runner)
	startup.LogEngineDeferred()

	gen := generator.New(generator.Config{
		Assets:    store,
		Text:      text,
		Engine:    engine,
		History:   db,
		Timeout:   config.GenerationTimeout,
		HandleTTL: config.ResultTTL,
		Observer:  metrics.NewPipelineObserver(),
	})

	go metrics.NewCollector(gen, 15*time.Second).Run(ctx)

	go maintain(ctx, gen, db, config.HistoryRetention)

	router := mux.NewRouter()
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	handlers.New(gen, db, store).Register(router)
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	var handler http.Handler = router
	handler = middleware.MaxBody(config.MaxUploadBytes)(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.RequestID(handler)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: ":" + config.MetricsPort, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			startup.LogFatal("Server error: %v", err)
		}
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	<-ctx.Done()
	startup.LogShutdownInitiated("signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// In-flight ffmpeg runs are killed so Shutdown is not held up by a
	// long render.
	runner.KillAll()
	startup.LogShutdownStep("Transcoder processes stopped")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	startup.LogShutdownStep("HTTP server stopped")

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	gen.Close()
	startup.LogShutdownStep("Engine workspace released")
}

// maintenanceStore is the part of the database maintain uses.
type maintenanceStore interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
	SetEngineVersion(ctx context.Context, version string) (bool, error)
}

// maintain expires held results, prunes old history and records the
// ffmpeg version once the engine is up.
func maintain(ctx context.Context, gen *generator.Generator, db maintenanceStore, retention time.Duration) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	recorded := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		recorded = maintainOnce(ctx, gen, db, retention, time.Now(), recorded)
	}
}

func maintainOnce(ctx context.Context, gen *generator.Generator, db maintenanceStore, retention time.Duration, now time.Time, recorded string) string {
	if n := gen.Handles().Expire(); n > 0 {
		logging.Info("Expired %d unreleased results", n)
	}

	if retention > 0 {
		if n, err := db.Prune(ctx, now.Add(-retention)); err != nil {
			logging.Warn("history prune: %v", err)
		} else if n > 0 {
			logging.Info("Pruned %d history rows older than %v", n, retention)
		}
	}

	eng := gen.Engine()
	if eng.State() != transcoder.Ready || eng.Version() == recorded {
		return recorded
	}
	changed, err := db.SetEngineVersion(ctx, eng.Version())
	if err != nil {
		logging.Warn("record engine version: %v", err)
		return recorded
	}
	if changed {
		logging.Info("ffmpeg version changed: %s", eng.Version())
	}
	return eng.Version()
}
