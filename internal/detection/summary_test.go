package detection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func det(id int, label string, conf float64) Detection {
	return Detection{ClassID: id, Label: label, Confidence: conf, Box: BoundingBox{X1: 1, Y1: 1, X2: 10, Y2: 10}}
}

func TestSummarize_CountsPerLabel(t *testing.T) {
	result := NewResult(640, 480, []Detection{
		det(0, "panel", 0.91),
		det(1, "cable", 0.55),
		det(0, "panel", 0.47),
	})

	summary := Summarize(result)

	assert.Equal(t, 2, summary.Count("panel"))
	assert.Equal(t, 1, summary.Count("cable"))
	assert.Equal(t, []string{"panel", "cable"}, summary.Labels())
	assert.Equal(t, map[string]int{"panel": 2, "cable": 1}, summary.Map())
}

func TestSummarize_TotalEqualsDetectionCount(t *testing.T) {
	tests := []struct {
		name string
		dets []Detection
	}{
		{"empty", nil},
		{"single", []Detection{det(2, "toolbox", 0.8)}},
		{"repeated", []Detection{det(2, "toolbox", 0.8), det(2, "toolbox", 0.7), det(2, "toolbox", 0.6)}},
		{"mixed", []Detection{det(0, "a", 0.9), det(1, "b", 0.9), det(0, "a", 0.9), det(2, "c", 0.9), det(1, "b", 0.9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewResult(100, 100, tt.dets)
			summary := Summarize(result)
			assert.Equal(t, result.Len(), summary.Total())
		})
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(NewResult(100, 100, nil))

	assert.True(t, summary.Empty())
	assert.Equal(t, 0, summary.Len())
	assert.Empty(t, summary.Entries())
	assert.Equal(t, map[string]int{}, summary.Map())

	nilSummary := Summarize(nil)
	assert.True(t, nilSummary.Empty())
}

func TestSummarize_FirstSeenOrder(t *testing.T) {
	result := NewResult(10, 10, []Detection{
		det(3, "oxygen tank", 0.9),
		det(1, "fire extinguisher", 0.9),
		det(3, "oxygen tank", 0.9),
		det(0, "toolbox", 0.9),
	})

	entries := Summarize(result).Entries()

	require.Len(t, entries, 3)
	assert.Equal(t, LabelCount{Label: "oxygen tank", Count: 2}, entries[0])
	assert.Equal(t, LabelCount{Label: "fire extinguisher", Count: 1}, entries[1])
	assert.Equal(t, LabelCount{Label: "toolbox", Count: 1}, entries[2])
}

func TestSummaryCounts_MarshalJSONKeepsOrder(t *testing.T) {
	result := NewResult(10, 10, []Detection{det(1, "panel", 0.9), det(0, "cable", 0.9), det(1, "panel", 0.9)})

	data, err := json.Marshal(Summarize(result))
	require.NoError(t, err)
	assert.Equal(t, `{"panel":2,"cable":1}`, string(data))

	empty, err := json.Marshal(Summarize(nil))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}

func TestDetectionResult_IsImmutable(t *testing.T) {
	dets := []Detection{det(0, "panel", 0.9)}
	result := NewResult(32, 16, dets)

	dets[0].Label = "changed"
	got := result.Detections()
	got[0].Label = "also changed"

	assert.Equal(t, "panel", result.Detections()[0].Label)
	assert.Equal(t, 32, result.Width())
	assert.Equal(t, 16, result.Height())
}

func TestScoreFilter(t *testing.T) {
	in := []Detection{det(0, "a", 0.2), det(1, "b", 0.4), det(2, "c", 0.39999), det(3, "d", 0.9)}

	out := NewScoreFilter(0.4)(in)

	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Label)
	assert.Equal(t, "d", out[1].Label)
}

func TestBoundingBox_Rect(t *testing.T) {
	box := BoundingBox{X1: 10.4, Y1: 20.6, X2: 50.5, Y2: 80.2}

	r := box.Rect()

	assert.Equal(t, 10, r.Min.X)
	assert.Equal(t, 21, r.Min.Y)
	assert.Equal(t, 51, r.Max.X)
	assert.Equal(t, 80, r.Max.Y)
	assert.InDelta(t, 40.1, box.Width(), 1e-9)
}
