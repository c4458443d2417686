package session

import (
	"image"
	"time"

	"assettracker/internal/detection"
)

// StateName identifies the variant held by a controller.
type StateName string

const (
	StateAwaitingUpload StateName = "awaiting_upload"
	StateShowingResults StateName = "showing_results"
)

// State is either AwaitingUpload or ShowingResults.
type State interface {
	Name() StateName
	isState()
}

// AwaitingUpload holds no image, only the threshold the next submit will use
// when the caller does not pick one.
type AwaitingUpload struct {
	Confidence float64
}

func (AwaitingUpload) Name() StateName { return StateAwaitingUpload }
func (AwaitingUpload) isState()        {}

// ShowingResults holds everything produced by one analysis.
type ShowingResults struct {
	Original   image.Image
	Annotated  image.Image
	Result     *detection.DetectionResult
	Summary    detection.SummaryCounts
	Confidence float64
	Filename   string
	AnalyzedAt time.Time
}

func (*ShowingResults) Name() StateName { return StateShowingResults }
func (*ShowingResults) isState()        {}

// NothingDetected reports the valid "no assets" outcome.
func (r *ShowingResults) NothingDetected() bool {
	return r.Summary.Empty()
}
