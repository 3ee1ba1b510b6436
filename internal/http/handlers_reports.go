package http

import (
	"net/http"
	"strconv"
	"time"

	"finbook/internal/core"
	"finbook/internal/report"

	"github.com/google/uuid"
)

type monthTotalsResponse struct {
	Month    int    `json:"month"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

type monthlyReportResponse struct {
	Year   int                   `json:"year"`
	Months []monthTotalsResponse `json:"months"`
}

type categoryTotalResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

type dashboardResponse struct {
	Year                 int    `json:"year"`
	Month                int    `json:"month"`
	TotalBalance         string `json:"total_balance"`
	TotalLoanOutstanding string `json:"total_loan_outstanding"`
	MonthIncome          string `json:"month_income"`
	MonthExpenses        string `json:"month_expenses"`
}

// Report cache keys start with the owner id so a write can drop all of one
// user's cached reports with a single prefix delete.
func reportKey(uid uuid.UUID, parts ...string) string {
	key := uid.String()
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func (s *Server) invalidateReports(uid uuid.UUID) {
	prefix := uid.String()
	s.monthlyCache.DeletePrefix(prefix)
	s.categoryCache.DeletePrefix(prefix)
	s.dashboardCache.DeletePrefix(prefix)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
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

	key := reportKey(owner.UserID, strconv.Itoa(year))
	if cached, ok := s.monthlyCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, err := s.transactions.List(r.Context(), owner.IDs(), year)
	if err != nil {
		writeError(w, err)
		return
	}

	breakdown := report.MonthlyBreakdown(txs, year)
	resp := monthlyReportResponse{Year: year}
	for i, m := range breakdown {
		resp.Months = append(resp.Months, monthTotalsResponse{
			Month:    i + 1,
			Income:   m.Income.String(),
			Expenses: m.Expenses.String(),
		})
	}

	s.monthlyCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
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
	topN, err := queryInt(r, "top", "0")
	if err != nil {
		writeBadRequest(w, "invalid top")
		return
	}
	typ := core.TransactionType(r.URL.Query().Get("type"))
	if typ == "" {
		typ = core.Expense
	}
	if err := typ.Validate(); err != nil {
		writeError(w, err)
		return
	}

	key := reportKey(owner.UserID, strconv.Itoa(year), string(typ), strconv.Itoa(topN))
	if cached, ok := s.categoryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, err := s.transactions.List(r.Context(), owner.IDs(), year)
	if err != nil {
		writeError(w, err)
		return
	}

	totals := report.CategoryBreakdown(txs, typ, topN)
	resp := make([]categoryTotalResponse, len(totals))
	for i, ct := range totals {
		resp[i] = categoryTotalResponse{Category: ct.Category, Total: ct.Total.String()}
	}

	s.categoryCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerScope(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	now := time.Now()
	year, err := queryInt(r, "year", now.Format("2006"))
	if err != nil {
		writeBadRequest(w, "invalid year")
		return
	}
	month, err := queryInt(r, "month", strconv.Itoa(int(now.Month())))
	if err != nil || month < 1 || month > 12 {
		writeBadRequest(w, "invalid month")
		return
	}

	key := reportKey(owner.UserID, "dash", strconv.Itoa(year), strconv.Itoa(month))
	if cached, ok := s.dashboardCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	owners := owner.IDs()
	accounts, err := s.store.ListAccounts(r.Context(), owners)
	if err != nil {
		writeError(w, err)
		return
	}
	loans, err := s.ledger.ListLoans(r.Context(), owners)
	if err != nil {
		writeError(w, err)
		return
	}
	txs, err := s.transactions.List(r.Context(), owners, year)
	if err != nil {
		writeError(w, err)
		return
	}

	summary := report.Dashboard(accounts, loans, txs, year, month)
	resp := dashboardResponse{
		Year:                 year,
		Month:                month,
		TotalBalance:         summary.TotalBalance.String(),
		TotalLoanOutstanding: summary.TotalLoanOutstanding.String(),
		MonthIncome:          summary.MonthIncome.String(),
		MonthExpenses:        summary.MonthExpenses.String(),
	}

	s.dashboardCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

type budgetResponse struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Amount      string  `json:"amount"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	ConsumedPct float64 `json:"consumed_pct"`
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Category string `json:"category"`
		Amount   string `json:"amount"`
		Year     int    `json:"year"`
		Month    int    `json:"month"`
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
	budget := core.Budget{
		ID:       uuid.New(),
		UserID:   uid,
		Category: req.Category,
		Amount:   amount,
		Year:     req.Year,
		Month:    req.Month,
	}
	if err := budget.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.UpsertBudget(r.Context(), budget); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{
		ID:       budget.ID.String(),
		Category: budget.Category,
		Amount:   budget.Amount.String(),
		Year:     budget.Year,
		Month:    budget.Month,
	})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerScope(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	now := time.Now()
	year, err := queryInt(r, "year", now.Format("2006"))
	if err != nil {
		writeBadRequest(w, "invalid year")
		return
	}
	month, err := queryInt(r, "month", strconv.Itoa(int(now.Month())))
	if err != nil || month < 1 || month > 12 {
		writeBadRequest(w, "invalid month")
		return
	}

	owners := owner.IDs()
	budgets, err := s.store.ListBudgets(r.Context(), owners, year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	txs, err := s.transactions.List(r.Context(), owners, year)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		out[i] = budgetResponse{
			ID:          b.ID.String(),
			Category:    b.Category,
			Amount:      b.Amount.String(),
			Year:        b.Year,
			Month:       b.Month,
			ConsumedPct: report.BudgetConsumption(b, txs),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type accountResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Name    string `json:"name"`
		Balance string `json:"balance"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, core.ErrEmptyDescription)
		return
	}
	var balance core.Money
	if req.Balance != "" {
		if balance, err = parseMoney(req.Balance); err != nil {
			writeError(w, err)
			return
		}
	}

	account := core.Account{
		ID:      uuid.New(),
		UserID:  uid,
		Name:    req.Name,
		Balance: balance,
	}
	if err := s.store.InsertAccount(r.Context(), account); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateReports(uid)
	writeJSON(w, http.StatusCreated, accountResponse{
		ID:      account.ID.String(),
		Name:    account.Name,
		Balance: account.Balance.String(),
	})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ownerScope(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	accounts, err := s.store.ListAccounts(r.Context(), owner.IDs())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = accountResponse{ID: a.ID.String(), Name: a.Name, Balance: a.Balance.String()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, core.ErrEmptyDescription)
		return
	}

	id := uuid.New()
	if err := s.store.CreateHousehold(r.Context(), id, req.Name); err != nil {
		writeError(w, err)
		return
	}
	// The creator is always a member.
	if err := s.store.AddHouseholdMember(r.Context(), id, uid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String(), "name": req.Name})
}

func (s *Server) handleAddHouseholdMember(w http.ResponseWriter, r *http.Request) {
	householdID, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid household id")
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	member, err := uuid.Parse(req.UserID)
	if err != nil {
		writeBadRequest(w, "invalid user id")
		return
	}

	if err := s.store.AddHouseholdMember(r.Context(), householdID, member); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
