// Package session drives one user's upload → results → reset cycle.
package session

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"assettracker/internal/detection"
	"assettracker/internal/service/codec"
)

// DefaultConfidence is the threshold a new session starts with.
const DefaultConfidence = 0.40

// ModelLoader yields the shared detector, loading it on first use.
type ModelLoader interface {
	Detector() (detection.Detector, error)
}

// Decoder turns uploaded bytes into an image.
type Decoder func([]byte) (image.Image, error)

// Option configures a Controller.
type Option func(*Controller)

// WithConfidence sets the initial threshold.
func WithConfidence(c float64) Option {
	return func(ctl *Controller) {
		if validConfidence(c) {
			ctl.state = AwaitingUpload{Confidence: c}
		}
	}
}

// WithDecoder replaces the image decoder.
func WithDecoder(d Decoder) Option {
	return func(ctl *Controller) { ctl.decode = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) { ctl.now = now }
}

// Controller is the state machine for one session. The model is requested
// from the loader once, at construction.
type Controller struct {
	mu        sync.Mutex
	detector  detection.Detector
	annotator detection.Annotator
	loadErr   error
	decode    Decoder
	now       func() time.Time
	state     State
}

// NewController builds a controller in AwaitingUpload. A model load failure
// does not prevent construction: Ready reports it and Submit refuses to run.
func NewController(loader ModelLoader, annotator detection.Annotator, opts ...Option) *Controller {
	c := &Controller{
		annotator: annotator,
		decode:    codec.Decode,
		now:       time.Now,
		state:     AwaitingUpload{Confidence: DefaultConfidence},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.detector, c.loadErr = loader.Detector()
	if c.loadErr == nil && c.detector == nil {
		c.loadErr = fmt.Errorf("%w: loader returned no detector", detection.ErrLoadFailure)
	}
	return c
}

// Ready returns the model load failure, if any.
func (c *Controller) Ready() error {
	return c.loadErr
}

// State returns the current state. ShowingResults is returned by pointer and
// must be treated as read-only.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Confidence is the threshold in effect for the current state.
func (c *Controller) Confidence() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch s := c.state.(type) {
	case *ShowingResults:
		return s.Confidence
	case AwaitingUpload:
		return s.Confidence
	}
	return DefaultConfidence
}

// SetConfidence changes the threshold for the next submit. It is only
// allowed while awaiting an upload.
func (c *Controller) SetConfidence(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(AwaitingUpload); !ok {
		return ErrResultsShowing
	}
	if !validConfidence(v) {
		return fmt.Errorf("%w: got %v", ErrInvalidConfidence, v)
	}
	c.state = AwaitingUpload{Confidence: v}
	return nil
}

// Submit analyses one uploaded image. On success the controller moves to
// ShowingResults and returns it; on any failure it stays in AwaitingUpload.
// An image with nothing above the threshold is a success with an empty
// summary.
func (c *Controller) Submit(ctx context.Context, data []byte, filename string, confidence float64) (*ShowingResults, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(AwaitingUpload); !ok {
		return nil, ErrResultsShowing
	}
	if c.loadErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, c.loadErr)
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	if !validConfidence(confidence) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence)
	}

	img, err := c.decode(data)
	if err != nil {
		return nil, err
	}

	result, err := c.detector.Detect(ctx, img, confidence)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	annotated, err := c.annotator.Annotate(img, result)
	if err != nil {
		return nil, fmt.Errorf("annotation failed: %w", err)
	}

	results := &ShowingResults{
		Original:   img,
		Annotated:  annotated,
		Result:     result,
		Summary:    detection.Summarize(result),
		Confidence: confidence,
		Filename:   filename,
		AnalyzedAt: c.now(),
	}
	c.state = results
	return results, nil
}

// Reset discards any held results and returns to AwaitingUpload, keeping the
// last threshold.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.state.(*ShowingResults); ok {
		c.state = AwaitingUpload{Confidence: s.Confidence}
	}
}

func validConfidence(v float64) bool {
	return v >= 0 && v <= 1
}
