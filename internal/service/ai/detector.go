package ai

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"assettracker/internal/detection"
	"assettracker/internal/logger"
	"assettracker/internal/service/ai/postprocess"

	"gocv.io/x/gocv"
)

// Supported network output layouts.
const (
	FormatYOLO = "yolo"
	FormatSSD  = "ssd"
)

// ssdInputSize is the fixed input side of the MobileNet SSD graphs.
const ssdInputSize = 300

// network is the part of gocv.Net the detector drives.
type network interface {
	SetInput(blob gocv.Mat, name string)
	Forward(outputName string) gocv.Mat
	Empty() bool
	Close() error
}

// DetectorService runs a loaded DNN over decoded images. A gocv.Net keeps
// per-call state between SetInput and Forward, so forward passes are
// serialised.
type DetectorService struct {
	net            network
	labels         *detection.LabelMap
	format         string
	inputSize      int
	iouThreshold   float64
	candidateFloor float32
	mu             sync.Mutex
	logger         *logger.Logger
}

var _ detection.Detector = (*DetectorService)(nil)

// Labels exposes the label map loaded with the model.
func (s *DetectorService) Labels() *detection.LabelMap {
	return s.labels
}

// Detect runs the network on img and returns detections scoring at least
// threshold. Candidates are decoded at a fixed floor and suppressed before the
// threshold is applied, so a higher threshold only ever removes detections.
func (s *DetectorService) Detect(ctx context.Context, img image.Image, threshold float64) (*detection.DetectionResult, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", detection.ErrDecodeFailure)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrDecodeFailure, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: converted image is empty", detection.ErrDecodeFailure)
	}

	width, height := mat.Cols(), mat.Rows()
	started := time.Now()

	var candidates []postprocess.Candidate
	switch s.format {
	case FormatSSD:
		candidates, err = s.forwardSSD(mat)
	default:
		candidates, err = s.forwardYOLO(mat)
	}
	if err != nil {
		return nil, err
	}

	detections, err := postprocess.Finalize(candidates, s.labels, s.iouThreshold, threshold, width, height)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Detected %d objects (%d candidates) in %dx%d image in %s",
		len(detections), len(candidates), width, height, time.Since(started).Round(time.Millisecond))

	return detection.NewResult(width, height, detections), nil
}

// forwardYOLO pads the image to a square at the top-left corner, resizes it
// to the network input and decodes a [1, 4+nc, anchors] output.
func (s *DetectorService) forwardYOLO(mat gocv.Mat) ([]postprocess.Candidate, error) {
	width, height := mat.Cols(), mat.Rows()
	side := max(width, height)

	square := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), side, side, gocv.MatTypeCV8UC3)
	defer square.Close()
	roi := square.Region(image.Rect(0, 0, width, height))
	mat.CopyTo(&roi)
	roi.Close()

	blob := gocv.BlobFromImage(square, 1.0/255.0, image.Pt(s.inputSize, s.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	output, err := s.forward(blob)
	if err != nil {
		return nil, err
	}
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("%w: unexpected yolo output shape %v", detection.ErrLoadFailure, dims)
	}
	attrs, anchors := dims[1], dims[2]
	if classes := attrs - 4; classes > s.labels.Len() {
		return nil, fmt.Errorf("%w: model emits %d classes but the label map has %d",
			detection.ErrLoadFailure, classes, s.labels.Len())
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	scale := float64(side) / float64(s.inputSize)
	return postprocess.DecodeYOLO(data, attrs, anchors, s.candidateFloor, scale)
}

// forwardSSD feeds a MobileNet SSD graph and decodes its [1, 1, N, 7] output.
func (s *DetectorService) forwardSSD(mat gocv.Mat) ([]postprocess.Candidate, error) {
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(ssdInputSize, ssdInputSize), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	output, err := s.forward(blob)
	if err != nil {
		return nil, err
	}
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}
	return postprocess.DecodeSSD(data, s.candidateFloor, mat.Cols(), mat.Rows())
}

// forward runs one inference pass. Net.Forward hands back a view of the
// network's output buffer, which the next pass overwrites, so a copy is
// returned. The caller closes it.
func (s *DetectorService) forward(blob gocv.Mat) (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.net == nil || s.net.Empty() {
		return gocv.Mat{}, fmt.Errorf("%w: detection network not initialized", detection.ErrLoadFailure)
	}
	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	if output.Empty() {
		output.Close()
		return gocv.Mat{}, fmt.Errorf("network forward pass returned no output")
	}
	defer output.Close()
	return output.Clone(), nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.net == nil {
		return nil
	}
	return s.net.Close()
}
