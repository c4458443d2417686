package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "yolo", cfg.ModelFormat)
	assert.InDelta(t, 0.40, cfg.DefaultConfidence, 1e-9)
	assert.InDelta(t, 0.7, cfg.IoUThreshold, 1e-9)
	assert.Equal(t, 640, cfg.ModelInputSize)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadSize)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_CONFIDENCE", "0.55")
	t.Setenv("MODEL_PATH", "/models/iss.onnx")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("SESSION_TTL_MINUTES", "15")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.InDelta(t, 0.55, cfg.DefaultConfidence, 1e-9)
	assert.Equal(t, "/models/iss.onnx", cfg.ModelPath)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadSize)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "eighty")
	t.Setenv("IOU_THRESHOLD", "high")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.InDelta(t, 0.7, cfg.IoUThreshold, 1e-9)
}
