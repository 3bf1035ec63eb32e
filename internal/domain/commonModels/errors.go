package commonModels

import (
	"errors"
	"net/http"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrUnsupportedMediaType = errors.New("unsupported file type")
	ErrInvalidPayload       = errors.New("invalid payload")
	ErrEmbedding            = errors.New("embedding failed")
	ErrRetrieval            = errors.New("retrieval failed")
	ErrProviderStream       = errors.New("provider stream failed")
	ErrPersistence          = errors.New("persistence failed")
	ErrNotFound             = errors.New("not found")
)

// HttpStatus maps a pipeline error onto the status the HTTP edge returns.
func HttpStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnsupportedMediaType),
		errors.Is(err, ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// DetailError is a sentinel kind plus a message meant for the caller.
type DetailError struct {
	Kind    error
	Message string
}

func (e *DetailError) Error() string { return e.Message }
func (e *DetailError) Unwrap() error { return e.Kind }

func Detail(kind error, message string) error {
	return &DetailError{Kind: kind, Message: message}
}
