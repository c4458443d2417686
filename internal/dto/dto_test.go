package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisInfo_MarshalJSON(t *testing.T) {
	at := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	info := AnalysisInfo{
		Name:       "analysis_20250615_143000.000.jpg",
		Source:     "module.png",
		Date:       at,
		TimeOfDay:  at,
		Confidence: 0.4,
		Labels:     []string{"panel", "cable"},
		Counts:     map[string]int{"panel": 2, "cable": 1},
	}

	data, err := json.Marshal(info)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "15-06-2025", decoded["date"])
	assert.Equal(t, "14:30", decoded["timeOfDay"])
	assert.Equal(t, "module.png", decoded["source"])
	assert.Equal(t, []any{"panel", "cable"}, decoded["labels"])
}

func TestTotalPagesFor(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		limit    int
		expected int
	}{
		{"even division", 100, 10, 10},
		{"with remainder", 25, 10, 3},
		{"exact match", 10, 10, 1},
		{"empty", 0, 10, 0},
		{"less than limit", 5, 10, 1},
		{"no limit", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TotalPagesFor(tt.length, tt.limit))
		})
	}
}
