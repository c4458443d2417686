package detection

import (
	"bytes"
	"encoding/json"
)

// NothingDetectedMessage is shown when a result has no detections.
const NothingDetectedMessage = "No critical assets were detected with the current confidence setting."

// LabelCount is one entry of a summary.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SummaryCounts counts detections per label. Labels iterate in the order they
// were first seen in the result; only labels with a count of at least one
// are present.
type SummaryCounts struct {
	order  []string
	counts map[string]int
}

// Summarize counts every detection of result exactly once, keyed by label.
func Summarize(result *DetectionResult) SummaryCounts {
	s := SummaryCounts{counts: map[string]int{}}
	if result == nil {
		return s
	}
	for _, d := range result.detections {
		if _, seen := s.counts[d.Label]; !seen {
			s.order = append(s.order, d.Label)
		}
		s.counts[d.Label]++
	}
	return s
}

// Len is the number of distinct labels.
func (s SummaryCounts) Len() int { return len(s.order) }

// Empty reports whether nothing was detected.
func (s SummaryCounts) Empty() bool { return len(s.order) == 0 }

// Count returns the count for label, or zero.
func (s SummaryCounts) Count(label string) int { return s.counts[label] }

// Total is the sum of all counts.
func (s SummaryCounts) Total() int {
	total := 0
	for _, c := range s.counts {
		total += c
	}
	return total
}

// Labels returns labels in first-seen order.
func (s SummaryCounts) Labels() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Entries returns label/count pairs in first-seen order.
func (s SummaryCounts) Entries() []LabelCount {
	out := make([]LabelCount, 0, len(s.order))
	for _, label := range s.order {
		out = append(out, LabelCount{Label: label, Count: s.counts[label]})
	}
	return out
}

// Map returns the counts as a plain map.
func (s SummaryCounts) Map() map[string]int {
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// MarshalJSON writes a JSON object whose keys keep first-seen order.
func (s SummaryCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(s.counts[label])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
