package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldLoanID      = "loan_id"
	FieldPaymentID   = "payment_id"
	FieldScheduleID  = "schedule_id"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldYear        = "year"
	FieldMonth       = "month"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentSchedule = "schedule"
	ComponentReport   = "report"
	ComponentStorage  = "storage"
	ComponentNotify   = "notify"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
)
