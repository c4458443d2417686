// Package annotate draws detection boxes and labels onto images.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/goregular"

	"assettracker/internal/detection"
)

// Options controls the drawing style.
type Options struct {
	LineWidth float64
	FontSize  float64
}

// DefaultOptions is used for zero fields of Options.
var DefaultOptions = Options{LineWidth: 3, FontSize: 16}

// Annotator renders detections as outlined boxes with a "label score" tag.
type Annotator struct {
	opts Options
	font *truetype.Font
}

var _ detection.Annotator = (*Annotator)(nil)

// New parses the embedded Go font and returns an Annotator.
func New(opts Options) (*Annotator, error) {
	if opts.LineWidth <= 0 {
		opts.LineWidth = DefaultOptions.LineWidth
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultOptions.FontSize
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Annotator{opts: opts, font: f}, nil
}

// Annotate draws every detection of result onto a copy of img, in result
// order, so later detections end up on top. img is not modified and the
// returned image has the same size.
func (a *Annotator) Annotate(img image.Image, result *detection.DetectionResult) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: nothing to annotate", detection.ErrDecodeFailure)
	}

	dc := gg.NewContextForImage(imaging.Clone(img))
	dc.SetFontFace(truetype.NewFace(a.font, &truetype.Options{Size: a.opts.FontSize}))

	for _, d := range result.Detections() {
		a.drawDetection(dc, d)
	}
	return dc.Image(), nil
}

func (a *Annotator) drawDetection(dc *gg.Context, d detection.Detection) {
	boxColor := ClassColor(d.ClassID)
	x, y := d.Box.X1, d.Box.Y1
	w, h := d.Box.Width(), d.Box.Height()

	dc.SetColor(boxColor)
	dc.SetLineWidth(a.opts.LineWidth)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	text := fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
	tw, th := dc.MeasureString(text)
	pad := math.Max(2, a.opts.FontSize/6)
	tagH := th + 2*pad

	// Tag sits above the box unless that would leave the image.
	tagY := y - tagH
	if tagY < 0 {
		tagY = y
	}

	dc.SetColor(boxColor)
	dc.DrawRectangle(x, tagY, tw+2*pad, tagH)
	dc.Fill()

	dc.SetColor(textColor(boxColor))
	dc.DrawString(text, x+pad, tagY+pad+th)
}

// ClassColor returns a stable colour for a class id. Hues are spaced by the
// golden angle so neighbouring ids differ clearly.
func ClassColor(classID int) colorful.Color {
	hue := math.Mod(float64(classID)*137.508, 360)
	if hue < 0 {
		hue += 360
	}
	return colorful.Hsv(hue, 0.85, 0.95).Clamped()
}

func textColor(background colorful.Color) color.Color {
	_, _, l := background.Hcl()
	if l > 0.6 {
		return color.Black
	}
	return color.White
}
