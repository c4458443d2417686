package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"assettracker/internal/detection"
	"assettracker/internal/dto"
	"assettracker/internal/logger"
	"assettracker/internal/metrics"
	"assettracker/internal/service/codec"
	"assettracker/internal/service/storage"
	"assettracker/internal/service/websocket"
	"assettracker/internal/session"
)

// AnalysisEvent is broadcast to dashboards after every successful scan.
type AnalysisEvent struct {
	Source     string                  `json:"source"`
	Confidence float64                 `json:"confidence"`
	Summary    detection.SummaryCounts `json:"summary"`
	Total      int                     `json:"total"`
	Timestamp  time.Time               `json:"timestamp"`
}

// Manager ties browser sessions to the archive, the event hub and metrics.
type Manager struct {
	sessions         *session.Store
	archiveService   *storage.ArchiveService
	websocketService *websocket.HubService
	metrics          *metrics.Metrics
	logger           *logger.Logger
}

// NewManager wires the services. archive and hub may be nil.
func NewManager(sessions *session.Store, archiveService *storage.ArchiveService, websocketService *websocket.HubService, m *metrics.Metrics, logger *logger.Logger) *Manager {
	return &Manager{
		sessions:         sessions,
		archiveService:   archiveService,
		websocketService: websocketService,
		metrics:          m,
		logger:           logger,
	}
}

func (m *Manager) GetWebsocketService() *websocket.HubService { return m.websocketService }

func (m *Manager) GetArchiveService() *storage.ArchiveService { return m.archiveService }

// Session returns the controller for id, starting a new session when id is
// unknown. The returned id is the one the client should keep.
func (m *Manager) Session(id string) (string, *session.Controller) {
	newID, c, created := m.sessions.GetOrCreate(id)
	if created {
		m.logger.Info("New session %s", newID)
	}
	return newID, c
}

// EndSession forgets a session.
func (m *Manager) EndSession(id string) {
	m.sessions.Delete(id)
}

// Analyze submits an upload to the session's controller and, on success,
// archives the annotated image and notifies dashboards.
func (m *Manager) Analyze(ctx context.Context, c *session.Controller, data []byte, filename string, confidence float64) (*session.ShowingResults, error) {
	start := time.Now()
	results, err := c.Submit(ctx, data, filename, confidence)
	elapsed := time.Since(start)

	if err != nil {
		m.observe(outcomeFor(err), elapsed)
		m.logger.Warning("Analysis of %q failed: %v", filename, err)
		return nil, err
	}

	outcome := metrics.OutcomeDetected
	if results.NothingDetected() {
		outcome = metrics.OutcomeNothing
	}
	m.observe(outcome, elapsed)
	if m.metrics != nil {
		m.metrics.ObserveDetections(results.Summary.Map())
	}

	m.logger.Info("Analyzed %q at %.2f in %v: %d detections", filename, results.Confidence, elapsed, results.Summary.Total())

	m.archive(results)
	m.notify(results)
	return results, nil
}

// Reset returns the session to awaiting an upload.
func (m *Manager) Reset(c *session.Controller) {
	c.Reset()
}

func (m *Manager) observe(outcome string, d time.Duration) {
	if m.metrics != nil {
		m.metrics.ObserveAnalysis(outcome, d)
	}
}

func (m *Manager) archive(results *session.ShowingResults) {
	if m.archiveService == nil {
		return
	}

	data, err := codec.JPEGBytes(results.Annotated)
	if err != nil {
		m.logger.Error("Error encoding annotated image: %v", err)
		return
	}

	dets := results.Result.Detections()
	records := make([]dto.DetectionRecord, 0, len(dets))
	for _, d := range dets {
		r := d.Box.Rect()
		records = append(records, dto.DetectionRecord{
			ClassID:    d.ClassID,
			Label:      d.Label,
			Confidence: d.Confidence,
			X:          r.Min.X,
			Y:          r.Min.Y,
			Width:      r.Dx(),
			Height:     r.Dy(),
		})
	}

	m.archiveService.AddAnalysis(dto.BufferedAnalysis{
		Timestamp:  results.AnalyzedAt,
		Source:     results.Filename,
		Confidence: results.Confidence,
		Detections: records,
		Data:       data,
	})
}

func (m *Manager) notify(results *session.ShowingResults) {
	if m.websocketService == nil {
		return
	}

	msg, err := json.Marshal(AnalysisEvent{
		Source:     results.Filename,
		Confidence: results.Confidence,
		Summary:    results.Summary,
		Total:      results.Summary.Total(),
		Timestamp:  results.AnalyzedAt,
	})
	if err != nil {
		m.logger.Error("Error encoding analysis event: %v", err)
		return
	}
	m.websocketService.Broadcast(msg)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, session.ErrModelUnavailable):
		return metrics.OutcomeUnavailable
	case session.IsUserInputError(err), errors.Is(err, session.ErrResultsShowing):
		return metrics.OutcomeUserError
	case errors.Is(err, detection.ErrDecodeFailure):
		return metrics.OutcomeDecodeError
	default:
		return metrics.OutcomeFailed
	}
}
