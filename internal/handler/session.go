package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"assettracker/internal/service"
	"assettracker/internal/session"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "session_id"

const multipartMemory = 8 << 20

// sessionFor returns the caller's controller, issuing a session cookie when
// a new session had to be started.
func sessionFor(w http.ResponseWriter, r *http.Request, manager *service.Manager) *session.Controller {
	id := ""
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		id = cookie.Value
	}

	newID, c := manager.Session(id)
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return c
}

// upload is what a scan request carries.
type upload struct {
	data       []byte
	filename   string
	confidence float64
}

// readUpload parses the multipart "image" file and "confidence" field.
// A missing file is not an error here; the controller rejects it. A missing
// confidence falls back to fallback.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64, fallback float64) (upload, error) {
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	}

	u := upload{confidence: fallback}
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return u, fmt.Errorf("failed to parse upload: %w", err)
	}

	if v := strings.TrimSpace(r.FormValue("confidence")); v != "" {
		conf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return u, fmt.Errorf("%w: %q", session.ErrInvalidConfidence, v)
		}
		u.confidence = conf
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return u, nil
	}
	if err != nil {
		return u, fmt.Errorf("failed to read upload: %w", err)
	}
	defer file.Close()

	u.data, err = io.ReadAll(file)
	if err != nil {
		return u, fmt.Errorf("failed to read upload: %w", err)
	}
	u.filename = header.Filename
	return u, nil
}
