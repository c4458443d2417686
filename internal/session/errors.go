package session

import "errors"

var (
	// ErrNoImage is returned when analysis is requested without an image.
	ErrNoImage = errors.New("no image selected")
	// ErrInvalidConfidence is returned for a threshold outside [0, 1].
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
	// ErrModelUnavailable wraps the load failure for every submit made while
	// the model could not be loaded.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrResultsShowing is returned for mutations other than Reset while
	// results are displayed.
	ErrResultsShowing = errors.New("results are being shown, reset before scanning another image")
)

// IsUserInputError reports whether err was caused by what the user supplied
// rather than by the model or the server.
func IsUserInputError(err error) bool {
	return errors.Is(err, ErrNoImage) || errors.Is(err, ErrInvalidConfidence)
}
