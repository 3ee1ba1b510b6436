package http

import (
	"net/http"

	"finbook/internal/amortize"
	"finbook/internal/core"
	"finbook/internal/ledger"

	"github.com/shopspring/decimal"
)

type loanResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Principal        string `json:"principal"`
	InterestRate     string `json:"interest_rate"`
	TenureMonths     int    `json:"tenure_months"`
	EMI              string `json:"emi"`
	RemainingBalance string `json:"remaining_balance"`
	StartDate        string `json:"start_date"`
	NextDueDate      string `json:"next_due_date"`
	IsActive         bool   `json:"is_active"`
	PaidOff          bool   `json:"paid_off"`
	Version          int64  `json:"version"`
}

func toLoanResponse(l core.Loan) loanResponse {
	return loanResponse{
		ID:               l.ID.String(),
		Name:             l.Name,
		Principal:        l.Principal.String(),
		InterestRate:     l.InterestRate.String(),
		TenureMonths:     l.TenureMonths,
		EMI:              l.EMI.String(),
		RemainingBalance: l.RemainingBalance.String(),
		StartDate:        formatDate(l.StartDate),
		NextDueDate:      formatDate(l.NextDueDate),
		IsActive:         l.IsActive,
		PaidOff:          l.PaidOff(),
		Version:          l.Version,
	}
}

type paymentResponse struct {
	ID                 string `json:"id"`
	LoanID             string `json:"loan_id"`
	Amount             string `json:"amount"`
	PrincipalComponent string `json:"principal_component"`
	InterestComponent  string `json:"interest_component"`
	PaymentDate        string `json:"payment_date"`
	Status             string `json:"status"`
}

func toPaymentResponse(p core.LoanPayment) paymentResponse {
	return paymentResponse{
		ID:                 p.ID.String(),
		LoanID:             p.LoanID.String(),
		Amount:             p.Amount.String(),
		PrincipalComponent: p.PrincipalComponent.String(),
		InterestComponent:  p.InterestComponent.String(),
		PaymentDate:        formatDate(p.PaymentDate),
		Status:             p.Status,
	}
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Name         string `json:"name"`
		Principal    string `json:"principal"`
		InterestRate string `json:"interest_rate"`
		TenureMonths int    `json:"tenure_months"`
		StartDate    string `json:"start_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	principal, err := parseMoney(req.Principal)
	if err != nil {
		writeError(w, err)
		return
	}
	rate, err := decimal.NewFromString(req.InterestRate)
	if err != nil {
		writeError(w, core.ErrInvalidRate)
		return
	}
	startDate, err := parseDateField(req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}

	loan, err := s.ledger.CreateLoan(r.Context(), ledger.CreateLoanParams{
		UserID:       uid,
		Name:         req.Name,
		Principal:    principal,
		InterestRate: rate,
		TenureMonths: req.TenureMonths,
		StartDate:    startDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerScope(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	loans, err := s.ledger.ListLoans(r.Context(), owner.IDs())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]loanResponse, len(loans))
	for i, l := range loans {
		out[i] = toLoanResponse(l)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid loan id")
		return
	}
	loan, err := s.ledger.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid loan id")
		return
	}

	var req struct {
		Name         *string `json:"name"`
		Principal    *string `json:"principal"`
		InterestRate *string `json:"interest_rate"`
		TenureMonths *int    `json:"tenure_months"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	params := ledger.UpdateLoanParams{
		Name:         req.Name,
		TenureMonths: req.TenureMonths,
	}
	if req.Principal != nil {
		principal, err := parseMoney(*req.Principal)
		if err != nil {
			writeError(w, err)
			return
		}
		params.Principal = &principal
	}
	if req.InterestRate != nil {
		rate, err := decimal.NewFromString(*req.InterestRate)
		if err != nil {
			writeError(w, core.ErrInvalidRate)
			return
		}
		params.InterestRate = &rate
	}

	loan, err := s.ledger.UpdateLoan(r.Context(), id, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (s *Server) handleDeactivateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid loan id")
		return
	}
	if err := s.ledger.DeactivateLoan(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid loan id")
		return
	}

	var req struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
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

	payment, err := s.ledger.ApplyPayment(r.Context(), id, amount, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid loan id")
		return
	}
	payments, err := s.ledger.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]paymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

type installmentResponse struct {
	Period           int    `json:"period"`
	DueDate          string `json:"due_date"`
	Principal        string `json:"principal"`
	Interest         string `json:"interest"`
	Total            string `json:"total"`
	RemainingBalance string `json:"remaining_balance"`
}

func toInstallmentResponse(in amortize.Installment) installmentResponse {
	return installmentResponse{
		Period:           in.Period,
		DueDate:          formatDate(in.DueDate),
		Principal:        in.Principal.String(),
		Interest:         in.Interest.String(),
		Total:            in.Total.String(),
		RemainingBalance: in.RemainingBalance.String(),
	}
}

func (s *Server) handleAmortizationPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid loan id")
		return
	}
	plan, err := s.ledger.AmortizationPlan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]installmentResponse, len(plan))
	for i, in := range plan {
		out[i] = toInstallmentResponse(in)
	}
	writeJSON(w, http.StatusOK, out)
}
