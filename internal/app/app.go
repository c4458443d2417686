package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"assettracker/internal/config"
	"assettracker/internal/logger"
	"assettracker/internal/metrics"
	"assettracker/internal/repository/sqlite"
	"assettracker/internal/route"
	"assettracker/internal/service"
	"assettracker/internal/service/ai"
	"assettracker/internal/service/annotate"
	"assettracker/internal/service/storage"
	"assettracker/internal/service/websocket"
	"assettracker/internal/session"
)

type App struct {
	config         *config.Config
	logger         *logger.Logger
	db             *sqlite.DB
	models         *ai.ModelProvider
	archiveService *storage.ArchiveService
	hubService     *websocket.HubService
	metrics        *metrics.Metrics
	manager        *service.Manager
	handler        http.Handler
}

func NewApp() (*App, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, err
	}

	annotator, err := annotate.New(annotate.Options{
		LineWidth: cfg.AnnotationLineWidth,
		FontSize:  cfg.AnnotationFontSize,
	})
	if err != nil {
		db.Close()
		log.Close()
		return nil, err
	}

	models := ai.NewModelProvider(cfg, log)
	// Load now so a broken model shows up in the log at startup. The server
	// still starts and reports the failure on the page.
	if _, err := models.Detector(); err != nil {
		log.Warning("Starting without a model: %v", err)
	}

	analysisRepo := sqlite.NewAnalysisRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)
	archive := storage.NewArchiveService(cfg, log, analysisRepo, detectionRepo)
	hub := websocket.NewHubService(log)

	store := session.NewStore(cfg.SessionTTL, func() *session.Controller {
		return session.NewController(models, annotator, session.WithConfidence(cfg.DefaultConfidence))
	})
	m := metrics.New(store.Count)
	archive.OnFlush(m.ObserveArchived)

	mng := service.NewManager(store, archive, hub, m, log)

	return &App{
		config:         cfg,
		logger:         log,
		db:             db,
		models:         models,
		archiveService: archive,
		hubService:     hub,
		metrics:        m,
		manager:        mng,
		handler:        route.SetupRoutes(mng, cfg, log, m, analysisRepo, detectionRepo),
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down and flushes the
// archive.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	archiveDone := make(chan struct{})
	go func() {
		a.archiveService.Run(ctx)
		close(archiveDone)
	}()
	go a.hubService.Run(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🛰️  ISS Asset Tracker\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Images: %s\n", a.config.ImageDirectory)
	fmt.Printf("🤖 AI Model: %s\n", a.config.ModelPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		err = server.Shutdown(shutdownCtx)
		stop()
	}

	cancel()
	<-archiveDone

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close releases the model, the database and the log files.
func (a *App) Close() {
	a.models.Close()
	a.db.Close()
	a.logger.Close()
}
