package http

import (
	"net/http"

	"finbook/internal/core"

	"github.com/google/uuid"
)

type scheduleResponse struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Frequency     string `json:"frequency"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	NextExecution string `json:"next_execution,omitempty"`
	Active        bool   `json:"active"`
	Expired       bool   `json:"expired"`
	Description   string `json:"description"`
	Amount        string `json:"amount,omitempty"`
	Type          string `json:"type,omitempty"`
	Category      string `json:"category,omitempty"`
	Version       int64  `json:"version"`
}

func toScheduleResponse(sc core.RecurringSchedule) scheduleResponse {
	resp := scheduleResponse{
		ID:            sc.ID.String(),
		Kind:          string(sc.Kind),
		Frequency:     string(sc.Frequency),
		StartDate:     formatDate(sc.StartDate),
		EndDate:       formatDate(sc.EndDate),
		NextExecution: formatDate(sc.NextExecution),
		Active:        sc.Active,
		Expired:       sc.Expired(),
		Description:   sc.Description,
		Type:          string(sc.Type),
		Category:      sc.Category,
		Version:       sc.Version,
	}
	if sc.Amount.Cents > 0 {
		resp.Amount = sc.Amount.String()
	}
	return resp
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Kind        string `json:"kind"`
		Frequency   string `json:"frequency"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Type        string `json:"type"`
		Category    string `json:"category"`
		AccountID   string `json:"account_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	startDate, err := parseDateField(req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}
	var endDate core.Date
	if req.EndDate != "" {
		if endDate, err = parseDateField(req.EndDate); err != nil {
			writeError(w, err)
			return
		}
	}
	var amount core.Money
	if req.Amount != "" {
		if amount, err = parseMoney(req.Amount); err != nil {
			writeError(w, err)
			return
		}
	}
	var accountID uuid.UUID
	if req.AccountID != "" {
		if accountID, err = uuid.Parse(req.AccountID); err != nil {
			writeBadRequest(w, "invalid account id")
			return
		}
	}

	sc, err := s.schedules.Create(r.Context(), core.RecurringSchedule{
		UserID:      uid,
		Kind:        core.ScheduleKind(req.Kind),
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   startDate,
		EndDate:     endDate,
		Description: req.Description,
		Amount:      amount,
		Type:        core.TransactionType(req.Type),
		Category:    req.Category,
		AccountID:   accountID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(sc))
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerScope(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	schedules, err := s.schedules.List(r.Context(), owner.IDs())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]scheduleResponse, len(schedules))
	for i, sc := range schedules {
		out[i] = toScheduleResponse(sc)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid schedule id")
		return
	}
	sc, err := s.schedules.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(sc))
}

func (s *Server) handleDeactivateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid schedule id")
		return
	}
	if err := s.schedules.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
