// AnalysisFilters narrow the history list.
package dto

import "time"

type AnalysisFilters struct {
	Label      string
	DateAfter  time.Time
	DateBefore time.Time
	Limit      int
	Offset     int
}
