package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"

	"github.com/cwbudde/curvefit/internal/dataset"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/session"
	"github.com/cwbudde/curvefit/internal/store"
)

// maxBodyBytes caps request bodies, CSV imports included.
const maxBodyBytes = 4 << 20

// badRequestError marks malformed client input.
type badRequestError struct {
	msg string
	err error
}

func (e *badRequestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}

type errorResponse struct {
	Error string        `json:"error"`
	Kind  fit.ErrorKind `json:"kind,omitempty"`
}

// statusFor maps an error to an HTTP status. Fit failures the client can fix
// by changing its input are 400; fits that are impossible for the current
// points are 422.
func statusFor(err error) int {
	var (
		fitErr      *fit.Error
		badReq      *badRequestError
		validation  *store.ValidationError
		maxBytesErr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrCapacity):
		return http.StatusConflict
	case errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &fitErr):
		switch fitErr.Kind {
		case fit.KindInvalidIndex, fit.KindInvalidPoint, fit.KindInvalidDegree, fit.KindUnknownMethod:
			return http.StatusBadRequest
		default:
			return http.StatusUnprocessableEntity
		}
	case errors.As(err, &badReq), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrNoValidRows), errors.Is(err, errUndefined):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v before writing the header so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
		status = http.StatusInternalServerError
		buf.Reset()
		json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}

	resp := errorResponse{Error: err.Error()}
	var fitErr *fit.Error
	if errors.As(err, &fitErr) {
		resp.Kind = fitErr.Kind
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads one JSON object from the body. Unknown fields are
// rejected. An empty body yields an error wrapping io.EOF.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &badRequestError{msg: "invalid JSON", err: err}
	}
	return nil
}

func isCSV(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && (mediaType == "text/csv" || mediaType == "text/plain")
}

func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(fmt.Sprintf("invalid point index %q", raw))
	}
	return index, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type methodRequest struct {
	Method *fit.Method `json:"method"`
	Degree *int        `json:"degree"`
}

// apply overlays the fields present in the request on base.
func (req methodRequest) apply(base fit.MethodConfig) fit.MethodConfig {
	if req.Method != nil {
		base.Method = *req.Method
	}
	if req.Degree != nil {
		base.Degree = *req.Degree
	}
	return base
}

type pointRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type editRequest struct {
	Axis  fit.Axis `json:"axis"`
	Value *float64 `json:"value"`
}

type replaceRequest struct {
	Points []fit.Point `json:"points"`
}

type importResponse struct {
	Session session.View        `json:"session"`
	Import  dataset.ImportStats `json:"import"`
}

type curveResponse struct {
	Range    fit.PlotRange `json:"range"`
	Samples  []fit.Point   `json:"samples"`
	Equation string        `json:"equation,omitempty"`
}

// statusRecorder captures the response status for logging. It forwards
// Flush so streaming handlers keep working behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
