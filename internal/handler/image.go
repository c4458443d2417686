package handler

import (
	"image"
	"net/http"

	"assettracker/internal/logger"
	"assettracker/internal/service"
	"assettracker/internal/service/codec"
	"assettracker/internal/session"
)

// SessionImageHandler serves the original or annotated image of the
// caller's current results as JPEG.
func SessionImageHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
			return
		}

		s, ok := sessionFor(w, r, manager).State().(*session.ShowingResults)
		if !ok {
			http.Error(w, "No results to show", http.StatusNotFound)
			return
		}

		var img image.Image
		switch r.URL.Query().Get("kind") {
		case "original":
			img = s.Original
		case "annotated", "":
			img = s.Annotated
		default:
			http.Error(w, "kind must be original or annotated", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-store")
		if err := codec.EncodeJPEG(w, img); err != nil {
			logger.Error("Error encoding session image: %v", err)
		}
	}
}
