package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	apierr "aqve/internal/errors"
)

const maxBodyBytes = int64(1 << 20)

var errInvalidBody = apierr.ErrBadRequest("Invalid request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError sends err as a {"message"} body. Anything that is not an
// *errors.APIError is logged and hidden behind a 500.
func writeError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	var e *apierr.APIError
	if !errors.As(err, &e) || e.IsTransport() {
		log.Errorw("request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, e.Code, e)
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, apierr.ErrBadRequest(name + " must be a number")
	}
	return n, true, nil
}

func floatParam(r *http.Request, name string) (float64, error) {
	n, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		return 0, apierr.ErrBadRequest(name + " must be a number")
	}
	return n, nil
}
