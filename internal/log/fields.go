package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldRole          = "role"
	FieldTransactionID = "transaction_id"
	FieldTxnType       = "transaction_type"
	FieldAmount        = "amount"
	FieldDate          = "date"
	FieldCategoryID    = "category_id"
	FieldStudentID     = "student_id"
	FieldVersion       = "version"
	FieldSheetsRef     = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentTransaction = "transaction"
	ComponentReport      = "report"
	ComponentCategory    = "category"
	ComponentStudent     = "student"
	ComponentBalance     = "balance"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentSheets      = "sheets"
	ComponentCache       = "cache"
	ComponentAuth        = "auth"
	ComponentSecurity    = "security"
	ComponentRateLimit   = "rate_limit"
	ComponentTrace       = "trace"
	ComponentBackend     = "backend"
)

// Operations defines standard operation names
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpVoid   = "void"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithCaller adds the acting user
func (f LogFields) WithCaller(userID, role string) LogFields {
	f[FieldUserID] = userID
	f[FieldRole] = role
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(id, txnType, amount, date, categoryID string, version int64) LogFields {
	f[FieldTransactionID] = id
	f[FieldTxnType] = txnType
	f[FieldAmount] = amount
	f[FieldDate] = date
	f[FieldCategoryID] = categoryID
	f[FieldVersion] = version
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
