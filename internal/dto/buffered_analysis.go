package dto

import "time"

// DetectionRecord is a detection ready for archiving.
type DetectionRecord struct {
	ClassID    int
	Label      string
	Confidence float64
	X          int
	Y          int
	Width      int
	Height     int
}

// BufferedAnalysis holds an annotated image and its detections before they
// are flushed to disk.
type BufferedAnalysis struct {
	Timestamp  time.Time
	Source     string
	Confidence float64
	Detections []DetectionRecord
	Data       []byte
}
