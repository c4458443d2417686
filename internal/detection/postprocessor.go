package detection

// Postprocessor filters or modifies a slice of detections.
type Postprocessor func([]Detection) []Detection

// NewScoreFilter drops detections scoring strictly below conf. Order is kept.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Confidence >= conf {
				out = append(out, d)
			}
		}
		return out
	}
}
