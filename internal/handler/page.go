package handler

import (
	"html/template"
	"net/http"
	"path/filepath"

	"assettracker/internal/config"
	"assettracker/internal/detection"
	"assettracker/internal/logger"
	"assettracker/internal/service"
	"assettracker/internal/session"
)

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

type resultsView struct {
	Filename   string
	Confidence float64
	Entries    []detection.LabelCount
	Message    string
	Version    int64
}

type pageData struct {
	ModelName  string
	ModelMAP   string
	ModelError string
	Confidence float64
	Error      string
	Results    *resultsView
}

func newPageData(cfg *config.Config, c *session.Controller) pageData {
	data := pageData{
		ModelName:  filepath.Base(cfg.ModelPath),
		ModelMAP:   cfg.ModelMAP,
		Confidence: c.Confidence(),
	}
	if err := c.Ready(); err != nil {
		data.ModelError = err.Error()
	}
	if s, ok := c.State().(*session.ShowingResults); ok {
		view := &resultsView{
			Filename:   s.Filename,
			Confidence: s.Confidence,
			Entries:    s.Summary.Entries(),
			Version:    s.AnalyzedAt.UnixNano(),
		}
		if s.NothingDetected() {
			view.Message = detection.NothingDetectedMessage
		}
		data.Results = view
	}
	return data
}

func renderPage(w http.ResponseWriter, logger *logger.Logger, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		logger.Error("Error rendering page: %v", err)
	}
}

// PageHandler renders the upload form or the results of the caller's session.
func PageHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
			return
		}
		c := sessionFor(w, r, manager)
		renderPage(w, logger, http.StatusOK, newPageData(cfg, c))
	}
}

// AnalyzeFormHandler handles POST /analyze from the page form. On success it
// redirects to the results page; on failure the page is rendered with the
// error and the mapped status.
func AnalyzeFormHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		c := sessionFor(w, r, manager)

		fail := func(err error) {
			data := newPageData(cfg, c)
			data.Error = messageFor(err)
			renderPage(w, logger, statusFor(err), data)
		}

		u, err := readUpload(w, r, cfg.MaxUploadSize, c.Confidence())
		if err != nil {
			logger.Warning("Rejected upload: %v", err)
			fail(err)
			return
		}

		// Remember the slider position even if the scan itself fails.
		if err := c.SetConfidence(u.confidence); err != nil {
			fail(err)
			return
		}

		if _, err := manager.Analyze(r.Context(), c, u.data, u.filename, u.confidence); err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				logger.Error("Analysis failed: %v", err)
			}
			fail(err)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// ResetHandler handles POST /reset.
func ResetHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		manager.Reset(sessionFor(w, r, manager))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
