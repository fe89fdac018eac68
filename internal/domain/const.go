package domain

const (
	RequesterIdCtxKey   = "qr-requesterId"
	RequesterRoleCtxKey = "qr-requesterRole"
)

// Data source lifecycle.
const (
	SourceStatusPending   = "pending"
	SourceStatusConnected = "connected"
	SourceStatusError     = "error"
)

// Supported data source types. Types with a registered connector can be
// pinged and walked; the rest are catalog-only.
const (
	SourceTypePostgres = "postgres"
	SourceTypeMySQL    = "mysql"
	SourceTypeCSV      = "csv"
	SourceTypeAPI      = "api"
)

// Pipeline lifecycle.
const (
	PipelineStatusDraft     = "draft"
	PipelineStatusRunning   = "running"
	PipelineStatusCompleted = "completed"
	PipelineStatusFailed    = "failed"
)

var pipelineTransitions = map[string][]string{
	PipelineStatusDraft:     {PipelineStatusRunning},
	PipelineStatusRunning:   {PipelineStatusCompleted, PipelineStatusFailed},
	PipelineStatusCompleted: {},
	PipelineStatusFailed:    {PipelineStatusRunning},
}

// ValidPipelineTransition reports whether a pipeline may move from one
// status to another.
func ValidPipelineTransition(from, to string) bool {
	for _, next := range pipelineTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Synthetic dataset lifecycle.
const (
	SyntheticStatusDraft      = "draft"
	SyntheticStatusGenerating = "generating"
	SyntheticStatusReady      = "ready"
	SyntheticStatusFailed     = "failed"
)

// Quality rule types.
const (
	RuleTypeNotNull = "not_null"
	RuleTypeUnique  = "unique"
	RuleTypePattern = "pattern"
	RuleTypeRange   = "range"
)

// Rule severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Annotation sources.
const (
	AnnotationSourceUser = "user"
	AnnotationSourceAI   = "ai"
)
