package repository

import (
	"assettracker/internal/dto"
	"assettracker/internal/model"
)

// AnalysisRepository defines the interface for archived analysis records.
type AnalysisRepository interface {
	// Create operations
	Insert(a *model.Analysis) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Analysis, error)
	GetByFilename(filename string) (*model.Analysis, error)
	GetAll(filter *dto.AnalysisFilters) ([]model.Analysis, error)
	GetTotalCount(filter *dto.AnalysisFilters) (int, error)
	GetTotalSize() (int64, error)

	// Delete operations
	Delete(id int64) error
	DeleteByFilename(filename string) error
	DeleteAll() error
}

// DetectionRepository defines the interface for per-analysis detections.
type DetectionRepository interface {
	// Create operations
	InsertBatch(detections []model.Detection) error

	// Read operations
	GetByAnalysisID(analysisID int64) ([]model.Detection, error)
	GetAllLabels() ([]string, error)
}
