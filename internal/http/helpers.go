package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"finbook/internal/core"
	"finbook/internal/scope"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type errorResponse struct {
	Error string `json:"error"`
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the core error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, core.ErrLoanPaidOff):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// userID reads the authenticated caller from the X-User-ID header.
// Authentication itself happens upstream; the API only needs the identity.
func userID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return uuid.Nil, errors.New("missing X-User-ID header")
	}
	return uuid.Parse(raw)
}

// ownerScope resolves the caller's visibility set.
func (s *Server) ownerScope(r *http.Request) (scope.Owner, error) {
	uid, err := userID(r)
	if err != nil {
		return scope.Owner{}, err
	}
	return s.resolver.Resolve(r.Context(), uid)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

func queryInt(r *http.Request, key, fallback string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		raw = fallback
	}
	return strconv.Atoi(raw)
}

func parseMoney(raw string) (core.Money, error) {
	cents, err := core.ParseCents(raw)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func parseDateField(raw string) (core.Date, error) {
	if raw == "" {
		return core.Date{}, core.ErrInvalidDate
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.DateOf(t), nil
}

func formatDate(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("2006-01-02")
}
