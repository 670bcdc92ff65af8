package log

// Field names shared across the app's structured logs.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldSessionID  = "session_id"
	FieldSourceFile = "source_file"
	FieldOperation  = "operation"
	FieldError      = "error"
)

// Component names stamped on every record.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentAdvisor = "advisor"
	ComponentWorker  = "worker"
)

// Operation names for the advisor's three verbs.
const (
	OpUpload  = "upload"
	OpAnalyze = "analyze"
	OpAsk     = "ask"
)

// LogFields accumulates attributes before handing them to slog.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithAnalysis tags a record with the session and the statement file
// it analyzed.
func (f LogFields) WithAnalysis(sessionID, sourceFile string) LogFields {
	f[FieldSessionID] = sessionID
	f[FieldSourceFile] = sourceFile
	return f
}

// ToSlice flattens the map into slog's alternating key/value form.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
