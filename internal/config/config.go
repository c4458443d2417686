package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	Password string

	ModelPath         string
	LabelsPath        string
	ModelFormat       string  // "yolo" (ONNX export) or "ssd" (TensorFlow graph)
	ModelConfigPath   string  // Only needed by frameworks that split weights and graph
	ModelInputSize    int     // Square network input side in pixels
	IoUThreshold      float64 // Overlap above which same-class boxes are merged
	CandidateFloor    float64 // Boxes below this score are never decoded
	DefaultConfidence float64
	ModelMAP          string // Shown on the page next to the model name

	AnnotationLineWidth float64
	AnnotationFontSize  float64

	ImageDirectory       string
	DatabasePath         string
	ArchiveBufferLimit   int
	ArchiveFlushInterval int // Seconds between archive flushes
	MaxUploadSize        int64
	SessionTTL           time.Duration
	LogDirectory         string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvAsInt("PORT", 8080),
		Password: getEnv("PASSWORD", "boinkvision"),

		ModelPath:         getEnv("MODEL_PATH", filepath.Join(".", "models", "best.onnx")),
		LabelsPath:        getEnv("LABELS_PATH", filepath.Join(".", "models", "data.yaml")),
		ModelFormat:       getEnv("MODEL_FORMAT", "yolo"),
		ModelConfigPath:   getEnv("MODEL_CONFIG_PATH", ""),
		ModelInputSize:    getEnvAsInt("MODEL_INPUT_SIZE", 640),
		IoUThreshold:      getEnvAsFloat("IOU_THRESHOLD", 0.7),
		CandidateFloor:    getEnvAsFloat("CANDIDATE_FLOOR", 0.01),
		DefaultConfidence: getEnvAsFloat("DEFAULT_CONFIDENCE", 0.40),
		ModelMAP:          getEnv("MODEL_MAP", "92.5%"),

		AnnotationLineWidth: getEnvAsFloat("ANNOTATION_LINE_WIDTH", 3),
		AnnotationFontSize:  getEnvAsFloat("ANNOTATION_FONT_SIZE", 16),

		ImageDirectory:       getEnv("IMAGE_DIR", filepath.Join(".", "images")),
		DatabasePath:         getEnv("DB_PATH", filepath.Join(".", "data", "analyses.db")),
		ArchiveBufferLimit:   getEnvAsInt("ARCHIVE_BUFFER_LIMIT", 10),
		ArchiveFlushInterval: getEnvAsInt("ARCHIVE_FLUSH_INTERVAL", 30),
		MaxUploadSize:        getEnvAsInt64("MAX_UPLOAD_MB", 20) << 20,
		SessionTTL:           time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		LogDirectory:         getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
