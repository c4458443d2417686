package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"assettracker/internal/dto"
	"assettracker/internal/logger"
	"assettracker/internal/repository"
	"assettracker/internal/service/storage"
)

// Upper bounds for gallery paging; they keep the row offset from overflowing.
const (
	maxPageSize = 100
	maxPage     = 1_000_000
)

// GetAnalysesHandler returns a filtered, paginated list of archived analyses.
func GetAnalysesHandler(archive *storage.ArchiveService, logger *logger.Logger,
	analysisRepo repository.AnalysisRepository, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodGet) {
			return
		}

		q := r.URL.Query()
		page := min(atoiDefault(q.Get("page"), 1), maxPage)
		limit := min(atoiDefault(q.Get("limit"), 24), maxPageSize)

		filter := &dto.AnalysisFilters{
			Label:      q.Get("label"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		analyses, err := analysisRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying analyses from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalSize, err := analysisRepo.GetTotalSize()
		if err != nil {
			logger.Error("Error getting archive size: %v", err)
			totalSize = 0
		}

		totalCount, err := analysisRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting analyses: %v", err)
			totalCount = len(analyses)
		}

		infos := make([]dto.AnalysisInfo, 0, len(analyses))
		for _, a := range analyses {
			labels, counts := []string{}, map[string]int{}
			if detectionRepo != nil {
				dets, err := detectionRepo.GetByAnalysisID(a.ID)
				if err != nil {
					logger.Error("Error getting detections for analysis %d: %v", a.ID, err)
				}
				for _, d := range dets {
					if counts[d.Label] == 0 {
						labels = append(labels, d.Label)
					}
					counts[d.Label]++
				}
			}

			infos = append(infos, dto.AnalysisInfo{
				Name:       a.Filename,
				Source:     a.Source,
				Date:       a.Timestamp.Local(),
				TimeOfDay:  a.Timestamp.Local(),
				Confidence: a.Confidence,
				Labels:     labels,
				Counts:     counts,
			})
		}

		writeJSON(w, logger, http.StatusOK, dto.AnalysesData{
			Analyses:    infos,
			ImagesDir:   archive.Dir(),
			Size:        totalSize,
			Length:      totalCount,
			TotalPages:  dto.TotalPagesFor(totalCount, limit),
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// GetLabelsHandler lists every label present in the archive.
func GetLabelsHandler(logger *logger.Logger, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels, err := detectionRepo.GetAllLabels()
		if err != nil {
			logger.Error("Error querying labels: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if labels == nil {
			labels = []string{}
		}
		writeJSON(w, logger, http.StatusOK, labels)
	}
}

// DeleteAnalysisHandler removes an archived analysis from disk and database.
func DeleteAnalysisHandler(archive *storage.ArchiveService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost, http.MethodDelete) {
			return
		}
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			http.Error(w, "Filename required", http.StatusBadRequest)
			return
		}

		if err := archive.Delete(filename); err != nil {
			if errors.Is(err, storage.ErrInvalidFilename) {
				http.Error(w, "Invalid filename", http.StatusBadRequest)
				return
			}
			logger.Error("Failed to delete analysis %s: %v", filename, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "deleted", "filename": filename})
	}
}

// ClearAnalysesHandler deletes every archived image and clears the database.
func ClearAnalysesHandler(archive *storage.ArchiveService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost, http.MethodDelete) {
			return
		}
		if err := archive.Clear(); err != nil {
			logger.Error("Error clearing archive: %v", err)
			http.Error(w, "Unable to clear archive", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ViewAnalysisHandler serves a single archived image named by the "image"
// query parameter.
func ViewAnalysisHandler(archive *storage.ArchiveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("image")
		if name == "" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}
		path, err := archive.Path(name)
		if err != nil {
			http.Error(w, "Invalid image name", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
