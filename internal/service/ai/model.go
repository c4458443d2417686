package ai

import (
	"fmt"
	"os"
	"sync"

	"assettracker/internal/config"
	"assettracker/internal/detection"
	"assettracker/internal/logger"

	"gocv.io/x/gocv"
)

// ModelProvider owns the process-wide detector. The model and its label map
// are loaded on the first call to Detector; later calls return the same
// detector or the same load error.
type ModelProvider struct {
	modelPath      string
	configPath     string
	labelsPath     string
	format         string
	inputSize      int
	iouThreshold   float64
	candidateFloor float64
	logger         *logger.Logger

	once     sync.Once
	detector *DetectorService
	err      error
}

// NewModelProvider prepares a provider; nothing is read from disk yet.
func NewModelProvider(cfg *config.Config, logger *logger.Logger) *ModelProvider {
	return &ModelProvider{
		modelPath:      cfg.ModelPath,
		configPath:     cfg.ModelConfigPath,
		labelsPath:     cfg.LabelsPath,
		format:         cfg.ModelFormat,
		inputSize:      cfg.ModelInputSize,
		iouThreshold:   cfg.IoUThreshold,
		candidateFloor: cfg.CandidateFloor,
		logger:         logger,
	}
}

// Detector returns the loaded detector, loading it on first use.
func (p *ModelProvider) Detector() (detection.Detector, error) {
	p.once.Do(func() {
		p.detector, p.err = p.load()
		if p.err != nil {
			p.logger.Error("Could not initialize detection network: %v", p.err)
		}
	})
	if p.err != nil {
		return nil, p.err
	}
	return p.detector, nil
}

// Labels returns the label map, or nil when the model is not loaded.
func (p *ModelProvider) Labels() *detection.LabelMap {
	if _, err := p.Detector(); err != nil {
		return nil
	}
	return p.detector.Labels()
}

// load reads the label map and the network and sets backend/target preferences.
func (p *ModelProvider) load() (*DetectorService, error) {
	switch p.format {
	case FormatYOLO, FormatSSD:
	default:
		return nil, fmt.Errorf("%w: unknown model format %q", detection.ErrLoadFailure, p.format)
	}
	if p.inputSize <= 0 {
		return nil, fmt.Errorf("%w: model input size must be positive, got %d", detection.ErrLoadFailure, p.inputSize)
	}

	if _, err := os.Stat(p.modelPath); err != nil {
		return nil, fmt.Errorf("%w: model file not found: %s", detection.ErrLoadFailure, p.modelPath)
	}
	if p.configPath != "" {
		if _, err := os.Stat(p.configPath); err != nil {
			return nil, fmt.Errorf("%w: model config file not found: %s", detection.ErrLoadFailure, p.configPath)
		}
	}

	labels, err := detection.LoadLabels(p.labelsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrLoadFailure, err)
	}

	net := gocv.ReadNet(p.modelPath, p.configPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to load network from %s", detection.ErrLoadFailure, p.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("%w: failed to set preferable backend or target", detection.ErrLoadFailure)
	}

	p.logger.Info("Detection network initialized from %s (%s, %d classes)", p.modelPath, p.format, labels.Len())

	return &DetectorService{
		net:            &net,
		labels:         labels,
		format:         p.format,
		inputSize:      p.inputSize,
		iouThreshold:   p.iouThreshold,
		candidateFloor: float32(p.candidateFloor),
		logger:         p.logger,
	}, nil
}

// Close releases the network if it was loaded.
func (p *ModelProvider) Close() {
	if p.detector != nil {
		if err := p.detector.Close(); err != nil {
			p.logger.Warning("Failed to close detection network: %v", err)
		}
	}
}
