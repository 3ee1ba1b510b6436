package http

import (
	"net/http"
	"time"

	"finbook/internal/core"

	"github.com/google/uuid"
)

type transactionResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	AccountID string `json:"account_id,omitempty"`
	Date      string `json:"date"`
	Note      string `json:"note,omitempty"`
	Deleted   bool   `json:"deleted"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:       tx.ID.String(),
		Type:     string(tx.Type),
		Amount:   tx.Amount.String(),
		Category: tx.Category,
		Date:     formatDate(tx.Date),
		Note:     tx.Note,
		Deleted:  tx.Deleted,
	}
	if tx.AccountID != uuid.Nil {
		resp.AccountID = tx.AccountID.String()
	}
	return resp
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Type      string `json:"type"`
		Amount    string `json:"amount"`
		Category  string `json:"category"`
		AccountID string `json:"account_id"`
		Date      string `json:"date"`
		Note      string `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	amount, err := parseMoney(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	var accountID uuid.UUID
	if req.AccountID != "" {
		if accountID, err = uuid.Parse(req.AccountID); err != nil {
			writeBadRequest(w, "invalid account id")
			return
		}
	}

	tx, err := s.transactions.Create(r.Context(), core.Transaction{
		UserID:    uid,
		Type:      core.TransactionType(req.Type),
		Amount:    amount,
		Category:  req.Category,
		AccountID: accountID,
		Date:      date,
		Note:      req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateReports(uid)
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerScope(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	year, err := queryInt(r, "year", time.Now().Format("2006"))
	if err != nil {
		writeBadRequest(w, "invalid year")
		return
	}

	txs, err := s.transactions.List(r.Context(), owner.IDs(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid transaction id")
		return
	}
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateReports(uid)
	w.WriteHeader(http.StatusNoContent)
}
