// Package postprocess turns raw network output tensors into scored boxes.
// It has no OpenCV dependency so the decoding rules can be tested on plain
// float slices.
package postprocess

import (
	"fmt"
	"math"
	"sort"

	"assettracker/internal/detection"
)

// Candidate is a decoded box before label lookup and thresholding.
type Candidate struct {
	ClassID int
	Score   float32
	Box     detection.BoundingBox
}

// DecodeYOLO reads a YOLOv8 style output laid out as [4+nc][anchors]: rows 0-3
// are the box centre and size in network input pixels, the remaining rows are
// per-class scores. Boxes scoring below floor are skipped. scale maps network
// input pixels back to source pixels.
func DecodeYOLO(data []float32, attrs, anchors int, floor float32, scale float64) ([]Candidate, error) {
	if attrs <= 4 {
		return nil, fmt.Errorf("yolo output needs more than 4 attributes, got %d", attrs)
	}
	if len(data) < attrs*anchors {
		return nil, fmt.Errorf("yolo output has %d values, expected %d", len(data), attrs*anchors)
	}

	var out []Candidate
	for idx := 0; idx < anchors; idx++ {
		classID := -1
		var best float32
		for c := 4; c < attrs; c++ {
			score := data[c*anchors+idx]
			if classID == -1 || score > best {
				best = score
				classID = c - 4
			}
		}
		if best < floor {
			continue
		}

		xc, yc := float64(data[idx]), float64(data[anchors+idx])
		w, h := float64(data[2*anchors+idx]), float64(data[3*anchors+idx])
		out = append(out, Candidate{
			ClassID: classID,
			Score:   best,
			Box: detection.BoundingBox{
				X1: (xc - w/2) * scale,
				Y1: (yc - h/2) * scale,
				X2: (xc + w/2) * scale,
				Y2: (yc + h/2) * scale,
			},
		})
	}
	return out, nil
}

// DecodeSSD reads rows of [batch, class, score, x1, y1, x2, y2] with
// coordinates normalised to the source image.
func DecodeSSD(data []float32, floor float32, width, height int) ([]Candidate, error) {
	if len(data)%7 != 0 {
		return nil, fmt.Errorf("ssd output length %d is not a multiple of 7", len(data))
	}

	var out []Candidate
	for i := 0; i+7 <= len(data); i += 7 {
		score := data[i+2]
		if score < floor {
			continue
		}
		out = append(out, Candidate{
			ClassID: int(data[i+1]),
			Score:   score,
			Box: detection.BoundingBox{
				X1: float64(data[i+3]) * float64(width),
				Y1: float64(data[i+4]) * float64(height),
				X2: float64(data[i+5]) * float64(width),
				Y2: float64(data[i+6]) * float64(height),
			},
		})
	}
	return out, nil
}

// IoU is the intersection over union of two boxes.
func IoU(a, b detection.BoundingBox) float64 {
	ix := math.Min(a.X2, b.X2) - math.Max(a.X1, b.X1)
	iy := math.Min(a.Y2, b.Y2) - math.Max(a.Y1, b.Y1)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := a.Width()*a.Height() + b.Width()*b.Height() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// NMS keeps the best scoring box of every group of same-class boxes that
// overlap by more than iouThreshold. The result is ordered by descending
// score; ties keep decode order so the output is deterministic.
func NMS(candidates []Candidate, iouThreshold float64) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	kept := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == c.ClassID && IoU(k.Box, c.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

// Clamp limits a box to the image bounds.
func Clamp(b detection.BoundingBox, width, height int) detection.BoundingBox {
	clamp := func(v, hi float64) float64 {
		return math.Max(0, math.Min(v, hi))
	}
	return detection.BoundingBox{
		X1: clamp(b.X1, float64(width)),
		Y1: clamp(b.Y1, float64(height)),
		X2: clamp(b.X2, float64(width)),
		Y2: clamp(b.Y2, float64(height)),
	}
}

// Finalize runs NMS over candidates decoded at the candidate floor, drops the
// survivors scoring below threshold, then resolves labels and clamps boxes to
// width x height. The NMS result does not depend on threshold, so a higher
// threshold yields a subsequence of a lower one. Labels are only resolved for
// kept boxes.
func Finalize(candidates []Candidate, labels *detection.LabelMap, iouThreshold, threshold float64, width, height int) ([]detection.Detection, error) {
	kept := NMS(candidates, iouThreshold)

	out := make([]detection.Detection, 0, len(kept))
	for _, c := range kept {
		if float64(c.Score) < threshold {
			continue
		}
		label, err := labels.Label(c.ClassID)
		if err != nil {
			return nil, err
		}
		out = append(out, detection.Detection{
			ClassID:    c.ClassID,
			Label:      label,
			Confidence: float64(c.Score),
			Box:        Clamp(c.Box, width, height),
		})
	}
	return out, nil
}
