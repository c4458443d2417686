// Package detection holds the model-independent detection types: the
// per-call result, the class label map and the per-class summary.
package detection

import (
	"context"
	"errors"
	"image"
	"math"
)

var (
	// ErrLoadFailure reports a missing or unusable model artifact, including a
	// label map that does not cover the class ids the model emits.
	ErrLoadFailure = errors.New("model load failure")
	// ErrDecodeFailure reports input bytes or pixels that are not a usable image.
	ErrDecodeFailure = errors.New("image decode failure")
)

// Detector runs a model over one image and keeps detections scoring at least
// threshold.
type Detector interface {
	Detect(ctx context.Context, img image.Image, threshold float64) (*DetectionResult, error)
}

// Annotator renders a result onto a fresh copy of img.
type Annotator interface {
	Annotate(img image.Image, result *DetectionResult) (image.Image, error)
}

// BoundingBox is an axis-aligned box in source image pixels.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width of the box in pixels.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height of the box in pixels.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Rect rounds the box to integer pixel coordinates.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.X1)), int(math.Round(b.Y1)),
		int(math.Round(b.X2)), int(math.Round(b.Y2)),
	)
}

// Detection is one predicted object instance.
type Detection struct {
	ClassID    int         `json:"classId"`
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// DetectionResult is the output of a single Detect call. It is not modified
// after construction; accessors hand out copies.
type DetectionResult struct {
	detections []Detection
	width      int
	height     int
}

// NewResult builds a result for an image of the given size. The detections
// slice is copied.
func NewResult(width, height int, detections []Detection) *DetectionResult {
	dets := make([]Detection, len(detections))
	copy(dets, detections)
	return &DetectionResult{detections: dets, width: width, height: height}
}

// Detections returns the detections in model order.
func (r *DetectionResult) Detections() []Detection {
	if r == nil {
		return nil
	}
	out := make([]Detection, len(r.detections))
	copy(out, r.detections)
	return out
}

// Len is the number of detections.
func (r *DetectionResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.detections)
}

// Empty reports whether nothing survived the threshold.
func (r *DetectionResult) Empty() bool { return r.Len() == 0 }

// Width of the source image.
func (r *DetectionResult) Width() int {
	if r == nil {
		return 0
	}
	return r.width
}

// Height of the source image.
func (r *DetectionResult) Height() int {
	if r == nil {
		return 0
	}
	return r.height
}
