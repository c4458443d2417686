package model

import "time"

// Analysis is one archived scan.
type Analysis struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	FilePath   string    `json:"filepath"`
	FileSize   int64     `json:"filesize"`
}

// Detection is a detected object belonging to an analysis.
type Detection struct {
	ID         int64   `json:"id"`
	AnalysisID int64   `json:"analysis_id"`
	ClassID    int     `json:"class_id"`
	Label      string  `json:"label"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}
