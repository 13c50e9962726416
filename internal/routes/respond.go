package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/haguru/choji/internal/apperror"
	"github.com/haguru/choji/internal/models/dto"
)

// HandlerFunc is an API handler. It returns the response body and status;
// a nil body or a 204 writes no body.
type HandlerFunc func(w http.ResponseWriter, req *http.Request) (any, int)

// Respond adapts h to net/http, writing its result as JSON and recording
// request metrics under name.
func (r *Route) Respond(name string, h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		body, status := h(w, req)
		r.write(w, body, status)

		r.Metrics.IncCounterVec(HTTPRequestsTotal, name, strconv.Itoa(status))
		r.Metrics.ObserveHistogramVec(HTTPRequestDurationSeconds, time.Since(start).Seconds(), name)
	}
}

func (r *Route) write(w http.ResponseWriter, body any, status int) {
	if body == nil || status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	payload, err := json.Marshal(body)
	if err != nil {
		r.Logger.Error(ErrFailedToEncode, "error", err)
		status = http.StatusInternalServerError
		payload, _ = json.Marshal(dto.ErrorResponseDTO{Error: ErrInternalServerError})
	}

	w.Header().Set(ContentType, ContentTypeJson)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// fail maps err to a status and a fixed public message. The detail is only logged.
func (r *Route) fail(req *http.Request, err error) (any, int) {
	status, message := classify(err)

	if status == http.StatusInternalServerError {
		r.Logger.Error(MsgRequestFailed, "method", req.Method, "path", req.URL.Path, "error", err)
	} else {
		r.Logger.Debug(MsgRequestRejected, "method", req.Method, "path", req.URL.Path, "status", status, "error", err)
	}
	return dto.ErrorResponseDTO{Error: message}, status
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusUnprocessableEntity, ErrUsernameTaken
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusUnprocessableEntity, ErrUnprocessableEntity
	case errors.Is(err, apperror.ErrAuthentication), errors.Is(err, apperror.ErrNotFound):
		// Every lookup behind a handler is keyed by the session user, so a
		// missing user means the session no longer authenticates anyone.
		return http.StatusUnauthorized, ErrUnauthorized
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}

// decode reads a JSON body into dst. A wrong content type or malformed body
// is a validation failure.
func (r *Route) decode(w http.ResponseWriter, req *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(req.Header.Get(ContentType))
	if err != nil || mediaType != ContentTypeJson {
		return fmt.Errorf("%w: %s", apperror.ErrValidation, ErrInvalidContentType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, MaxRequestBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s: %v", apperror.ErrValidation, ErrInvalidRequestBody, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: trailing data", apperror.ErrValidation, ErrInvalidRequestBody)
	}
	return nil
}

func validationError(err error) error {
	return fmt.Errorf("%w: %v", apperror.ErrValidation, err)
}
