package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"fireworks/application"
	"fireworks/domain/entities"

	log "github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// errorBody is the JSON shape of every failure
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, application.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, application.ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	}

	kind := entities.FailureKind(err)
	switch kind {
	case entities.FailureAccountNotFound, entities.FailureBetNotFound:
		return http.StatusNotFound, kind
	case entities.FailureInvalidBetState, entities.FailureLevelMaxed, entities.FailureAccountExists:
		return http.StatusConflict, kind
	case entities.FailureInsufficientBalance, entities.FailureBelowThreshold,
		entities.FailureInvalidAmount, entities.FailureUnknownUpgrade:
		return http.StatusUnprocessableEntity, kind
	case entities.FailureNotSignedIn:
		return http.StatusUnauthorized, kind
	case entities.FailureForbidden:
		return http.StatusForbidden, kind
	default:
		return http.StatusServiceUnavailable, kind
	}
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)

	message := entities.NotificationFor(err)
	switch kind {
	case "bad_request":
		message = err.Error()
	case "session_not_found":
		message = "that session has ended"
	case "too_many_sessions":
		message = "too many fireworks shows are running, close one and try again"
	}

	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		}).Error("Request failed")
	}
	writeJSON(w, status, errorBody{Kind: kind, Message: message})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return badRequest("invalid body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// queryInt reads a non-negative integer query parameter, clamped to max
func queryInt(r *http.Request, name string, fallback, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", name)
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}
