package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"assettracker/internal/detection"
	"assettracker/internal/logger"
	"assettracker/internal/service/storage"
	"assettracker/internal/session"
)

// statusFor maps a pipeline error to the HTTP status returned to the client.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrResultsShowing):
		return http.StatusConflict
	case session.IsUserInputError(err),
		errors.Is(err, detection.ErrDecodeFailure),
		errors.Is(err, storage.ErrInvalidFilename):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the text shown to the user for err.
func messageFor(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return "The uploaded file is too large."
	case errors.Is(err, session.ErrNoImage):
		return "Please choose an image to analyze."
	case errors.Is(err, session.ErrInvalidConfidence):
		return "Confidence must be a number between 0 and 1."
	case errors.Is(err, detection.ErrDecodeFailure):
		return "The uploaded file could not be read as an image."
	case errors.Is(err, session.ErrModelUnavailable):
		return "The detection model is unavailable: " + err.Error()
	case errors.Is(err, session.ErrResultsShowing):
		return "Results are already shown. Click \"Scan Another Image\" first."
	default:
		return "Analysis failed. Check the error log for details."
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// writeJSONError responds with {"error": message} and the mapped status.
func writeJSONError(w http.ResponseWriter, logger *logger.Logger, err error) {
	writeJSON(w, logger, statusFor(err), map[string]string{"error": messageFor(err)})
}

// allowMethods rejects requests whose method is not listed.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}
