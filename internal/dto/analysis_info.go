package dto

import (
	"encoding/json"
	"time"
)

// AnalysisInfo describes an archived analysis in the history gallery.
type AnalysisInfo struct {
	Name       string         `json:"name"`
	Source     string         `json:"source"`
	Date       time.Time      `json:"date"`
	TimeOfDay  time.Time      `json:"timeOfDay"`
	Confidence float64        `json:"confidence"`
	Labels     []string       `json:"labels"`
	Counts     map[string]int `json:"counts"`
}

// MarshalJSON formats date and time-of-day for display.
func (a AnalysisInfo) MarshalJSON() ([]byte, error) {
	type Alias AnalysisInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      a.Date.Format("02-01-2006"),
		TimeOfDay: a.TimeOfDay.Format("15:04"),
		Alias:     (Alias)(a),
	})
}
