package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assettracker/internal/detection"
)

// fakeDetector returns a scripted set of candidates, filtered by threshold
// the way the real detector does.
type fakeDetector struct {
	candidates []detection.Detection
	err        error
	calls      int
	lastConf   float64
}

func (f *fakeDetector) Detect(_ context.Context, img image.Image, threshold float64) (*detection.DetectionResult, error) {
	f.calls++
	f.lastConf = threshold
	if f.err != nil {
		return nil, f.err
	}
	size := img.Bounds().Size()
	return detection.NewResult(size.X, size.Y, detection.NewScoreFilter(threshold)(f.candidates)), nil
}

type fakeLoader struct {
	det detection.Detector
	err error
}

func (l fakeLoader) Detector() (detection.Detector, error) { return l.det, l.err }

type copyAnnotator struct{ calls int }

func (a *copyAnnotator) Annotate(img image.Image, _ *detection.DetectionResult) (image.Image, error) {
	a.calls++
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func issDetections() []detection.Detection {
	return []detection.Detection{
		{ClassID: 0, Label: "panel", Confidence: 0.92, Box: detection.BoundingBox{X1: 1, Y1: 1, X2: 10, Y2: 10}},
		{ClassID: 1, Label: "cable", Confidence: 0.61, Box: detection.BoundingBox{X1: 5, Y1: 5, X2: 20, Y2: 12}},
		{ClassID: 0, Label: "panel", Confidence: 0.45, Box: detection.BoundingBox{X1: 12, Y1: 2, X2: 30, Y2: 20}},
		{ClassID: 2, Label: "hatch", Confidence: 0.2, Box: detection.BoundingBox{X1: 0, Y1: 0, X2: 4, Y2: 4}},
	}
}

func newTestController(t *testing.T, det *fakeDetector) (*Controller, *copyAnnotator) {
	t.Helper()
	ann := &copyAnnotator{}
	c := NewController(fakeLoader{det: det}, ann)
	require.NoError(t, c.Ready())
	return c, ann
}

func TestController_StartsAwaitingUpload(t *testing.T) {
	c, _ := newTestController(t, &fakeDetector{})

	state, ok := c.State().(AwaitingUpload)
	require.True(t, ok)
	assert.InDelta(t, DefaultConfidence, state.Confidence, 1e-9)
	assert.Equal(t, StateAwaitingUpload, c.State().Name())
}

func TestController_SubmitShowsResults(t *testing.T) {
	det := &fakeDetector{candidates: issDetections()}
	c, ann := newTestController(t, det)
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return at }

	results, err := c.Submit(context.Background(), testPNG(t), "scan.png", 0.4)
	require.NoError(t, err)

	assert.Equal(t, 1, det.calls)
	assert.Equal(t, 1, ann.calls)
	assert.InDelta(t, 0.4, det.lastConf, 1e-9)
	assert.Equal(t, map[string]int{"panel": 2, "cable": 1}, results.Summary.Map())
	assert.Equal(t, []string{"panel", "cable"}, results.Summary.Labels())
	assert.Equal(t, results.Original.Bounds(), results.Annotated.Bounds())
	assert.Equal(t, "scan.png", results.Filename)
	assert.Equal(t, at, results.AnalyzedAt)
	assert.False(t, results.NothingDetected())

	assert.Same(t, results, c.State())
	assert.Equal(t, StateShowingResults, c.State().Name())
}

func TestController_NothingDetectedIsNotAnError(t *testing.T) {
	det := &fakeDetector{candidates: issDetections()}
	c, _ := newTestController(t, det)

	results, err := c.Submit(context.Background(), testPNG(t), "scan.png", 0.95)
	require.NoError(t, err)

	assert.True(t, results.NothingDetected())
	assert.True(t, results.Summary.Empty())
	assert.Equal(t, StateShowingResults, c.State().Name())
}

func TestController_SubmitWithoutImage(t *testing.T) {
	det := &fakeDetector{candidates: issDetections()}
	c, _ := newTestController(t, det)

	_, err := c.Submit(context.Background(), nil, "", 0.4)

	assert.ErrorIs(t, err, ErrNoImage)
	assert.True(t, IsUserInputError(err))
	assert.Equal(t, 0, det.calls)
	assert.Equal(t, StateAwaitingUpload, c.State().Name())
}

func TestController_InvalidConfidence(t *testing.T) {
	det := &fakeDetector{}
	c, _ := newTestController(t, det)

	for _, conf := range []float64{-0.1, 1.01} {
		_, err := c.Submit(context.Background(), testPNG(t), "scan.png", conf)
		assert.ErrorIs(t, err, ErrInvalidConfidence)
	}
	assert.Equal(t, 0, det.calls)
	assert.ErrorIs(t, c.SetConfidence(2), ErrInvalidConfidence)
}

func TestController_DecodeFailureStaysAwaiting(t *testing.T) {
	det := &fakeDetector{}
	c, _ := newTestController(t, det)

	_, err := c.Submit(context.Background(), []byte("not an image"), "notes.txt", 0.4)

	assert.ErrorIs(t, err, detection.ErrDecodeFailure)
	assert.False(t, IsUserInputError(err))
	assert.Equal(t, 0, det.calls)
	assert.Equal(t, StateAwaitingUpload, c.State().Name())
}

func TestController_DetectorFailureStaysAwaiting(t *testing.T) {
	det := &fakeDetector{err: errors.New("forward pass failed")}
	c, ann := newTestController(t, det)

	_, err := c.Submit(context.Background(), testPNG(t), "scan.png", 0.4)

	assert.Error(t, err)
	assert.Equal(t, 0, ann.calls)
	assert.Equal(t, StateAwaitingUpload, c.State().Name())
}

func TestController_ModelUnavailable(t *testing.T) {
	loadErr := errors.Join(detection.ErrLoadFailure, errors.New("model file not found: best.onnx"))
	c := NewController(fakeLoader{err: loadErr}, &copyAnnotator{})

	assert.ErrorIs(t, c.Ready(), detection.ErrLoadFailure)

	for i := 0; i < 3; i++ {
		_, err := c.Submit(context.Background(), testPNG(t), "scan.png", 0.4)
		assert.ErrorIs(t, err, ErrModelUnavailable)
		assert.ErrorIs(t, err, detection.ErrLoadFailure)
	}

	_, err := c.Submit(context.Background(), nil, "", 0.4)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, StateAwaitingUpload, c.State().Name())
}

func TestController_NilDetectorIsLoadFailure(t *testing.T) {
	c := NewController(fakeLoader{}, &copyAnnotator{})

	assert.ErrorIs(t, c.Ready(), detection.ErrLoadFailure)
}

func TestController_ResultsLockedUntilReset(t *testing.T) {
	det := &fakeDetector{candidates: issDetections()}
	c, _ := newTestController(t, det)

	_, err := c.Submit(context.Background(), testPNG(t), "scan.png", 0.5)
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), testPNG(t), "again.png", 0.3)
	assert.ErrorIs(t, err, ErrResultsShowing)
	assert.ErrorIs(t, c.SetConfidence(0.3), ErrResultsShowing)
	assert.InDelta(t, 0.5, c.Confidence(), 1e-9)
	assert.Equal(t, 1, det.calls)

	c.Reset()

	state, ok := c.State().(AwaitingUpload)
	require.True(t, ok)
	assert.InDelta(t, 0.5, state.Confidence, 1e-9, "threshold survives reset")

	require.NoError(t, c.SetConfidence(0.3))
	_, err = c.Submit(context.Background(), testPNG(t), "again.png", c.Confidence())
	require.NoError(t, err)
	assert.Equal(t, 2, det.calls)
}

func TestController_ResetWhileAwaitingIsNoop(t *testing.T) {
	c, _ := newTestController(t, &fakeDetector{})
	require.NoError(t, c.SetConfidence(0.7))

	c.Reset()

	assert.Equal(t, AwaitingUpload{Confidence: 0.7}, c.State())
}

func TestController_IdempotentDetect(t *testing.T) {
	det := &fakeDetector{candidates: issDetections()}
	c, _ := newTestController(t, det)

	first, err := c.Submit(context.Background(), testPNG(t), "scan.png", 0.4)
	require.NoError(t, err)
	c.Reset()
	second, err := c.Submit(context.Background(), testPNG(t), "scan.png", 0.4)
	require.NoError(t, err)

	assert.Equal(t, first.Result.Detections(), second.Result.Detections())
	assert.Equal(t, first.Summary.Entries(), second.Summary.Entries())
}

func TestController_WithOptions(t *testing.T) {
	decoded := 0
	c := NewController(fakeLoader{det: &fakeDetector{}}, &copyAnnotator{},
		WithConfidence(0.25),
		WithDecoder(func(b []byte) (image.Image, error) {
			decoded++
			return image.NewGray(image.Rect(0, 0, 4, 4)), nil
		}),
	)

	assert.InDelta(t, 0.25, c.Confidence(), 1e-9)
	_, err := c.Submit(context.Background(), []byte{1}, "raw.bin", c.Confidence())
	require.NoError(t, err)
	assert.Equal(t, 1, decoded)

	ignored := NewController(fakeLoader{det: &fakeDetector{}}, &copyAnnotator{}, WithConfidence(3))
	assert.InDelta(t, DefaultConfidence, ignored.Confidence(), 1e-9)
}
