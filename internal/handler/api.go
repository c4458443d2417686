package handler

import (
	"net/http"
	"time"

	"assettracker/internal/config"
	"assettracker/internal/detection"
	"assettracker/internal/logger"
	"assettracker/internal/service"
	"assettracker/internal/session"
)

// ResultsResponse is the JSON form of ShowingResults.
type ResultsResponse struct {
	Filename        string                  `json:"filename"`
	Confidence      float64                 `json:"confidence"`
	Width           int                     `json:"width"`
	Height          int                     `json:"height"`
	Detections      []detection.Detection   `json:"detections"`
	Summary         detection.SummaryCounts `json:"summary"`
	Total           int                     `json:"total"`
	NothingDetected bool                    `json:"nothingDetected"`
	Message         string                  `json:"message,omitempty"`
	AnalyzedAt      time.Time               `json:"analyzedAt"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	State      session.StateName `json:"state"`
	Confidence float64           `json:"confidence"`
	ModelReady bool              `json:"modelReady"`
	ModelError string            `json:"modelError,omitempty"`
	Results    *ResultsResponse  `json:"results,omitempty"`
}

func newResultsResponse(s *session.ShowingResults) *ResultsResponse {
	resp := &ResultsResponse{
		Filename:        s.Filename,
		Confidence:      s.Confidence,
		Width:           s.Result.Width(),
		Height:          s.Result.Height(),
		Detections:      s.Result.Detections(),
		Summary:         s.Summary,
		Total:           s.Summary.Total(),
		NothingDetected: s.NothingDetected(),
		AnalyzedAt:      s.AnalyzedAt,
	}
	if resp.Detections == nil {
		resp.Detections = []detection.Detection{}
	}
	if resp.NothingDetected {
		resp.Message = detection.NothingDetectedMessage
	}
	return resp
}

func newSessionResponse(c *session.Controller) SessionResponse {
	state := c.State()
	resp := SessionResponse{
		State:      state.Name(),
		Confidence: c.Confidence(),
		ModelReady: c.Ready() == nil,
	}
	if err := c.Ready(); err != nil {
		resp.ModelError = err.Error()
	}
	if s, ok := state.(*session.ShowingResults); ok {
		resp.Results = newResultsResponse(s)
	}
	return resp
}

// SessionStateHandler handles GET /api/session.
func SessionStateHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, logger, http.StatusOK, newSessionResponse(sessionFor(w, r, manager)))
	}
}

// AnalyzeAPIHandler handles POST /api/analyze and returns the results as JSON.
func AnalyzeAPIHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		c := sessionFor(w, r, manager)

		u, err := readUpload(w, r, cfg.MaxUploadSize, c.Confidence())
		if err != nil {
			logger.Warning("Rejected upload: %v", err)
			writeJSONError(w, logger, err)
			return
		}

		results, err := manager.Analyze(r.Context(), c, u.data, u.filename, u.confidence)
		if err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				logger.Error("Analysis failed: %v", err)
			}
			writeJSONError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, newResultsResponse(results))
	}
}

// ResetAPIHandler handles POST /api/reset.
func ResetAPIHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		c := sessionFor(w, r, manager)
		manager.Reset(c)
		writeJSON(w, logger, http.StatusOK, newSessionResponse(c))
	}
}
