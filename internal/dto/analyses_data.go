package dto

// AnalysesData is a paginated response payload for the history gallery.
type AnalysesData struct {
	Analyses    []AnalysisInfo `json:"analyses"`
	ImagesDir   string         `json:"imagesDir"`
	Size        int64          `json:"size"`
	Length      int            `json:"length"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Limit       int            `json:"pageSize"`
}

// TotalPagesFor returns how many pages of limit items length spans.
func TotalPagesFor(length, limit int) int {
	if length <= 0 || limit <= 0 {
		return 0
	}
	return (length + limit - 1) / limit
}
