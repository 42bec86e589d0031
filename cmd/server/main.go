package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/agriflow/reporting/internal/config"
	"github.com/agriflow/reporting/internal/dispatch"
	"github.com/agriflow/reporting/internal/render"
	"github.com/agriflow/reporting/internal/repository/artifacts"
	"github.com/agriflow/reporting/internal/repository/mongodb"
	"github.com/agriflow/reporting/internal/scheduler"
	"github.com/agriflow/reporting/internal/server/handlers"
	"github.com/agriflow/reporting/internal/server/router"
	"github.com/agriflow/reporting/internal/service/ingest"
	"github.com/agriflow/reporting/internal/service/location"
	reportingsvc "github.com/agriflow/reporting/internal/service/reporting"
	"github.com/agriflow/reporting/pkg/clients/farmcalendar"
	"github.com/agriflow/reporting/pkg/clients/nominatim"
	"github.com/agriflow/reporting/pkg/clients/wms"
	"github.com/agriflow/reporting/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	calendarClient := farmcalendar.NewClient(cfg.FarmCalendar)
	geocoderClient := nominatim.NewClient(cfg.Geocoder)
	imageryClient := wms.NewClient(cfg.Imagery)

	store, err := artifacts.NewFileStore(cfg.Artifacts.Directory, baseLogger.Named("repo.artifacts"))
	if err != nil {
		baseLogger.Fatal("failed to init artifact store", zap.Error(err))
	}

	var jobStore mongodb.JobStore = mongodb.NopStore{}
	if cfg.MongoDB.URI != "" {
		registry, err := mongodb.NewJobRegistry(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init job registry", zap.Error(err))
		}
		defer func() {
			if err := registry.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		jobStore = registry
	} else {
		baseLogger.Warn("mongodb uri missing, job registry disabled")
	}

	remoteEnabled := cfg.FarmCalendar.UsingGatekeeper
	source := ingest.NewRouter(calendarClient, remoteEnabled, baseLogger.Named("svc.ingest"))
	resolver := location.NewResolver(calendarClient, geocoderClient, remoteEnabled, baseLogger.Named("svc.location"))
	assembler := reportingsvc.NewService(source, resolver, imageryClient, baseLogger.Named("svc.reporting"))

	runner := dispatch.NewRunner(
		assembler,
		[]dispatch.Renderer{render.PDFRenderer{}, render.XLSXRenderer{}},
		store,
		jobStore,
		0,
		baseLogger.Named("dispatch"),
	)

	reportHandler := handlers.NewReportHandler(runner, store, remoteEnabled, baseLogger.Named("handlers.reports"))
	engine := router.New(reportHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Retention, store, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}

	// Let in-flight report jobs land their artifacts before exiting.
	runner.Wait()
}
