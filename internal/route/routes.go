package route

import (
	"net/http"

	"assettracker/internal/config"
	"assettracker/internal/handler"
	"assettracker/internal/logger"
	"assettracker/internal/metrics"
	"assettracker/internal/middleware"
	"assettracker/internal/repository"
	"assettracker/internal/service"
)

// SetupRoutes registers the page, session, archive, log and auth endpoints
// and wraps the mux with the authentication middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger, m *metrics.Metrics,
	analysisRepo repository.AnalysisRepository, detectionRepo repository.DetectionRepository) http.Handler {
	mux := http.NewServeMux()

	// Session flow
	mux.HandleFunc("/", handler.PageHandler(manager, cfg, logger))
	mux.HandleFunc("/analyze", handler.AnalyzeFormHandler(manager, cfg, logger))
	mux.HandleFunc("/reset", handler.ResetHandler(manager))
	mux.HandleFunc("/session/image", handler.SessionImageHandler(manager, logger))

	// API endpoints
	mux.HandleFunc("/api/session", handler.SessionStateHandler(manager, logger))
	mux.HandleFunc("/api/analyze", handler.AnalyzeAPIHandler(manager, cfg, logger))
	mux.HandleFunc("/api/reset", handler.ResetAPIHandler(manager, logger))
	mux.HandleFunc("/api/events", handler.EventsWebsocketHandler(manager, logger))

	if archive := manager.GetArchiveService(); archive != nil && analysisRepo != nil {
		mux.HandleFunc("/api/analyses", handler.GetAnalysesHandler(archive, logger, analysisRepo, detectionRepo))
		mux.HandleFunc("/api/analyses/view", handler.ViewAnalysisHandler(archive))
		mux.HandleFunc("/api/analyses/delete", handler.DeleteAnalysisHandler(archive, logger))
		mux.HandleFunc("/api/analyses/clear", handler.ClearAnalysesHandler(archive, logger))
		mux.HandleFunc("/api/analyses/labels", handler.GetLabelsHandler(logger, detectionRepo))
	}

	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowLogsHandler(logger, "info.log"))
	mux.HandleFunc("/logs/warning", handler.ShowLogsHandler(logger, "warning.log"))
	mux.HandleFunc("/logs/error", handler.ShowLogsHandler(logger, "error.log"))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogsHandler(logger, "info.log"))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogsHandler(logger, "warning.log"))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogsHandler(logger, "error.log"))

	// Auth endpoints
	mux.HandleFunc("/login", handler.LoginPageHandler(logger))
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler(manager))

	return middleware.AuthMiddleware(cfg.Password, mux)
}
