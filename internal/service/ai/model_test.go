package ai

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assettracker/internal/config"
	"assettracker/internal/detection"
	"assettracker/internal/logger"
)

func TestModelProvider_MissingModelIsLoadFailure(t *testing.T) {
	dir := t.TempDir()
	provider := NewModelProvider(&config.Config{
		ModelPath:      filepath.Join(dir, "best.onnx"),
		LabelsPath:     filepath.Join(dir, "data.yaml"),
		ModelFormat:    FormatYOLO,
		ModelInputSize: 640,
	}, logger.Discard())

	det, err := provider.Detector()
	assert.Nil(t, det)
	assert.ErrorIs(t, err, detection.ErrLoadFailure)

	_, again := provider.Detector()
	assert.Same(t, err, again, "load is attempted once")
	assert.Nil(t, provider.Labels())
}

func TestModelProvider_BadLabelsIsLoadFailure(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "best.onnx")
	require.NoError(t, os.WriteFile(modelPath, []byte("not a network"), 0644))
	labelsPath := filepath.Join(dir, "data.yaml")
	require.NoError(t, os.WriteFile(labelsPath, []byte("nc: 2\n"), 0644))

	provider := NewModelProvider(&config.Config{
		ModelPath:      modelPath,
		LabelsPath:     labelsPath,
		ModelFormat:    FormatYOLO,
		ModelInputSize: 640,
	}, logger.Discard())

	_, err := provider.Detector()
	assert.ErrorIs(t, err, detection.ErrLoadFailure)
}

func TestModelProvider_UnknownFormat(t *testing.T) {
	provider := NewModelProvider(&config.Config{ModelFormat: "pt", ModelInputSize: 640}, logger.Discard())

	_, err := provider.Detector()
	assert.ErrorIs(t, err, detection.ErrLoadFailure)
	assert.Contains(t, err.Error(), "unknown model format")
}
