package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency of a recurring schedule.
const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Transaction direction.
const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Schedule kinds: a transaction schedule materializes a transaction when it
// fires, a bill reminder only emits a notification event.
const (
	ScheduleTransaction  ScheduleKind = "transaction"
	ScheduleBillReminder ScheduleKind = "bill_reminder"
)

// Loan payment status. Payments are append-only; completed is the only
// status the ledger writes today.
const PaymentCompleted = "completed"

type (
	Frequency       string
	TransactionType string
	ScheduleKind    string

	// Transaction is a single income or expense entry. Deleted entries are
	// kept with Deleted=true for history.
	Transaction struct {
		ID        uuid.UUID
		UserID    uuid.UUID
		Type      TransactionType
		Amount    Money
		Category  string
		AccountID uuid.UUID
		Date      Date
		Note      string
		Deleted   bool
		CreatedAt time.Time
	}

	// Loan is an amortized loan. EMI is derived at creation or when
	// principal/rate/tenure change; RemainingBalance moves only through
	// ledger payment application.
	Loan struct {
		ID               uuid.UUID
		UserID           uuid.UUID
		Name             string
		Principal        Money
		InterestRate     decimal.Decimal // annual percent, e.g. 19 for 19%
		TenureMonths     int
		EMI              Money
		RemainingBalance Money
		StartDate        Date
		NextDueDate      Date
		IsActive         bool
		Version          int64
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	// LoanPayment is one applied payment, split into principal and interest.
	// Immutable once written.
	LoanPayment struct {
		ID                 uuid.UUID
		LoanID             uuid.UUID
		UserID             uuid.UUID
		Amount             Money
		PrincipalComponent Money
		InterestComponent  Money
		PaymentDate        Date
		Status             string
		CreatedAt          time.Time
	}

	// RecurringSchedule produces occurrences from a frequency and start/end
	// bounds. NextExecution is zero once the schedule has expired. The
	// template fields describe the transaction to materialize (or the bill
	// to remind about).
	RecurringSchedule struct {
		ID            uuid.UUID
		UserID        uuid.UUID
		Kind          ScheduleKind
		Frequency     Frequency
		StartDate     Date
		EndDate       Date // zero value means no end
		NextExecution Date // zero value means expired
		Active        bool
		Description   string
		Amount        Money
		Type          TransactionType
		Category      string
		AccountID     uuid.UUID
		Version       int64
		CreatedAt     time.Time
	}

	// Budget caps spending for a category in a given month.
	Budget struct {
		ID       uuid.UUID
		UserID   uuid.UUID
		Category string
		Amount   Money
		Year     int
		Month    int // 1-12
	}

	// Account is a money container (bank account, wallet, card).
	Account struct {
		ID      uuid.UUID
		UserID  uuid.UUID
		Name    string
		Balance Money
	}
)

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidInput
	}
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (l Loan) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyDescription
	}
	if !l.Principal.IsPositive() {
		return ErrInvalidPrincipal
	}
	if l.InterestRate.IsNegative() {
		return ErrInvalidRate
	}
	if l.TenureMonths <= 0 {
		return ErrInvalidTenure
	}
	if err := l.StartDate.Validate(); err != nil {
		return err
	}
	return nil
}

// PaidOff reports whether the loan balance has reached zero. A paid-off loan
// stays active (soft deactivation is a separate, manual action) but rejects
// further payments.
func (l Loan) PaidOff() bool {
	return l.RemainingBalance.IsZero()
}

func (s RecurringSchedule) Validate() error {
	if s.Kind != ScheduleTransaction && s.Kind != ScheduleBillReminder {
		return ErrInvalidInput
	}
	if err := s.Frequency.Validate(); err != nil {
		return err
	}
	if err := s.StartDate.Validate(); err != nil {
		return err
	}
	if !s.EndDate.IsEmpty() && s.EndDate.Before(s.StartDate) {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(s.Description)) == 0 {
		return ErrEmptyDescription
	}
	if s.Kind == ScheduleTransaction {
		if err := s.Type.Validate(); err != nil {
			return err
		}
		if err := s.Amount.Validate(); err != nil {
			return err
		}
		if strings.TrimSpace(s.Category) == "" {
			return ErrEmptyCategory
		}
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Year < 1 || b.Month < 1 || b.Month > 12 {
		return ErrInvalidDate
	}
	return nil
}

// Expired reports whether the schedule has run past its end date.
func (s RecurringSchedule) Expired() bool {
	return s.NextExecution.IsEmpty()
}
