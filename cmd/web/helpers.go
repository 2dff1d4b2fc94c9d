package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/workout"
)

const genericErrorMessage = "Something went wrong. Please try again later."

// errorResponse is the body of every failed API call.
type errorResponse struct {
	ServerError string `json:"serverError"`
}

// writeJSON encodes v as the response body. Encoding happens before the status is written so that a failure can
// still be reported as a server error.
func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(append(body, '\n')); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "failed to write response", slog.Any("error", err))
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorResponse{ServerError: genericErrorMessage})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client error",
		slog.Int("status", status), slog.String("message", msg))
	app.writeJSON(w, r, status, errorResponse{ServerError: msg})
}

// serviceError maps the errors of the workout service to a response.
func (app *application) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workout.ErrInvalidRequest):
		app.clientError(w, r, http.StatusBadRequest, workout.UserMessage(err, "Invalid request"))
	case errors.Is(err, workout.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, workout.UserMessage(err, "Not found"))
	default:
		app.serverError(w, r, err)
	}
}

// queryInt parses the optional integer query parameter key. Missing parameters yield zero.
func queryInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("Invalid %s: must be a whole number", key) //nolint:staticcheck // shown to the caller.
	}
	return n, nil
}

// queryBool parses the optional boolean query parameter key. Missing parameters yield nil.
func queryBool(q url.Values, key string) (*bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil //nolint:nilnil // absent is not an error.
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("Invalid %s: must be true or false", key) //nolint:staticcheck // shown to the caller.
	}
	return &b, nil
}
