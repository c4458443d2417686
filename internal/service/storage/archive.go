package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"assettracker/internal/config"
	"assettracker/internal/dto"
	"assettracker/internal/logger"
	"assettracker/internal/model"
	"assettracker/internal/repository"
)

const timestampLayout = "20060102_150405.000"

// ErrInvalidFilename is returned for names that would escape the image
// directory.
var ErrInvalidFilename = errors.New("invalid filename")

// ArchiveService buffers completed analyses in memory and periodically
// flushes them to the image directory and the database.
type ArchiveService struct {
	imagesDir     string
	limit         int
	interval      time.Duration
	pending       []dto.BufferedAnalysis
	mu            sync.Mutex
	logger        *logger.Logger
	analysisRepo  repository.AnalysisRepository
	detectionRepo repository.DetectionRepository
	onFlush       func(saved int)
}

// NewArchiveService creates an archive writing under cfg.ImageDirectory.
// Either repository may be nil, in which case only files are written.
func NewArchiveService(cfg *config.Config, logger *logger.Logger, analysisRepo repository.AnalysisRepository, detectionRepo repository.DetectionRepository) *ArchiveService {
	limit := cfg.ArchiveBufferLimit
	if limit <= 0 {
		limit = 1
	}
	interval := time.Duration(cfg.ArchiveFlushInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ArchiveService{
		imagesDir:     cfg.ImageDirectory,
		limit:         limit,
		interval:      interval,
		logger:        logger,
		analysisRepo:  analysisRepo,
		detectionRepo: detectionRepo,
	}
}

// OnFlush registers a callback invoked with the number of analyses saved by
// each flush.
func (s *ArchiveService) OnFlush(fn func(saved int)) {
	s.mu.Lock()
	s.onFlush = fn
	s.mu.Unlock()
}

// Dir is the directory annotated images are written to.
func (s *ArchiveService) Dir() string { return s.imagesDir }

// Run flushes on a ticker until ctx is cancelled, then flushes once more.
func (s *ArchiveService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// AddAnalysis queues an analysis. A full buffer is flushed immediately.
func (s *ArchiveService) AddAnalysis(a dto.BufferedAnalysis) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.pending = append(s.pending, a)
	full := len(s.pending) >= s.limit
	s.logger.Info("Archive buffer: %d/%d", len(s.pending), s.limit)
	s.mu.Unlock()

	if full {
		s.Flush()
	}
}

// Pending is the number of analyses not yet flushed.
func (s *ArchiveService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes buffered analyses to disk and the database and returns how
// many were saved.
func (s *ArchiveService) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, a := range s.pending {
		if err := s.save(a); err != nil {
			s.logger.Error("Error archiving analysis of %s: %v", a.Source, err)
			continue
		}
		savedCount++
	}

	s.logger.Info("Flushed %d analyses to disk", savedCount)
	s.pending = s.pending[:0]
	if s.onFlush != nil {
		s.onFlush(savedCount)
	}
	return savedCount
}

func (s *ArchiveService) save(a dto.BufferedAnalysis) error {
	filename := archiveFilename(a)
	fullpath := filepath.Join(s.imagesDir, filename)

	if err := os.WriteFile(fullpath, a.Data, 0644); err != nil {
		return fmt.Errorf("failed to save image %s: %w", filename, err)
	}

	if s.analysisRepo == nil {
		return nil
	}

	analysisID, err := s.analysisRepo.Insert(&model.Analysis{
		Filename:   filename,
		Source:     a.Source,
		Timestamp:  a.Timestamp,
		Confidence: a.Confidence,
		FilePath:   fullpath,
		FileSize:   int64(len(a.Data)),
	})
	if err != nil {
		os.Remove(fullpath)
		return fmt.Errorf("failed to save analysis to database: %w", err)
	}

	if s.detectionRepo == nil || len(a.Detections) == 0 {
		return nil
	}

	dbDetections := make([]model.Detection, 0, len(a.Detections))
	for _, det := range a.Detections {
		dbDetections = append(dbDetections, model.Detection{
			AnalysisID: analysisID,
			ClassID:    det.ClassID,
			Label:      det.Label,
			X:          det.X,
			Y:          det.Y,
			Width:      det.Width,
			Height:     det.Height,
			Confidence: det.Confidence,
		})
	}
	if err := s.detectionRepo.InsertBatch(dbDetections); err != nil {
		s.logger.Error("Error saving detections to database: %v", err)
	}
	return nil
}

// archiveFilename is timestamp, short random suffix and the distinct labels
// in first-seen order.
func archiveFilename(a dto.BufferedAnalysis) string {
	seen := make(map[string]bool)
	var labels []string
	for _, det := range a.Detections {
		name := sanitize(det.Label)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		labels = append(labels, name)
	}

	name := fmt.Sprintf("analysis_%s_%s", a.Timestamp.Format(timestampLayout), uuid.NewString()[:8])
	if len(labels) > 0 {
		name += "_" + strings.Join(labels, "-")
	}
	return name + ".jpg"
}

func sanitize(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '_'
		}
		return -1
	}, label)
}

// Path resolves an archived filename inside the image directory.
func (s *ArchiveService) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsRune(filename, 0) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return filepath.Join(s.imagesDir, filename), nil
}

// Delete removes an archived analysis from disk and the database.
func (s *ArchiveService) Delete(filename string) error {
	path, err := s.Path(filename)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Failed to delete file %s: %v", path, err)
	}

	if s.analysisRepo != nil {
		if err := s.analysisRepo.DeleteByFilename(filename); err != nil {
			return err
		}
	}

	s.logger.Info("Deleted analysis: %s", filename)
	return nil
}

// Clear drops pending analyses, deletes every archived image and empties
// the database.
func (s *ArchiveService) Clear() error {
	s.mu.Lock()
	s.pending = s.pending[:0]
	s.mu.Unlock()

	files, err := os.ReadDir(s.imagesDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to read image directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.imagesDir, file.Name())); err != nil {
			s.logger.Error("Error deleting file %s: %v", file.Name(), err)
		}
	}

	if s.analysisRepo != nil {
		if err := s.analysisRepo.DeleteAll(); err != nil {
			return err
		}
	}

	s.logger.Info("All analyses cleared from directory: %s", s.imagesDir)
	return nil
}
