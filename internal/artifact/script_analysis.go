package artifact

// FunctionRecord describes one `function name(...) {...}` declaration.
type FunctionRecord struct {
	Name        string   `json:"name"`
	Parameters  []string `json:"parameters"`
	IsPublic    bool     `json:"is_public"`
	LineCount   int      `json:"line_count"`
	Description string   `json:"description,omitempty"`
	File        string   `json:"file"`
	StartLine   int      `json:"start_line"`
	EndLine     int      `json:"end_line"`

	// Byte offsets of the extent inside the owning file; not persisted.
	Start int `json:"-"`
	End   int `json:"-"`
}

// ExternalCall is an outbound endpoint keyed by (BaseURL, Method).
type ExternalCall struct {
	BaseURL     string `json:"base_url"`
	Method      string `json:"method"`
	Description string `json:"description"`
	Occurrences int    `json:"occurrences"`
	Location    string `json:"location"`
}

// GoogleServiceUsage marks a platform service referenced by the unit.
type GoogleServiceUsage struct {
	Service   string `json:"service"`
	Namespace string `json:"namespace"`
}

type TriggerType string

const (
	TriggerTimeDriven   TriggerType = "time-driven"
	TriggerOnEdit       TriggerType = "on-edit"
	TriggerOnOpen       TriggerType = "on-open"
	TriggerOnFormSubmit TriggerType = "on-form-submit"
	TriggerWebGet       TriggerType = "web-request-get"
	TriggerWebPost      TriggerType = "web-request-post"
	TriggerOther        TriggerType = "other"
)

// TriggerRecord is one way the project gets invoked.
type TriggerRecord struct {
	Type         TriggerType `json:"type"`
	Function     string      `json:"function"`
	Schedule     string      `json:"schedule,omitempty"`
	Programmatic bool        `json:"programmatic"`
	Event        string      `json:"event"`
	Location     string      `json:"location,omitempty"`
}

type ResourceKind string

const (
	ResourceSpreadsheet     ResourceKind = "spreadsheet"
	ResourceDocument        ResourceKind = "document"
	ResourceDriveFile       ResourceKind = "drive-file"
	ResourceActiveContainer ResourceKind = "active-container"
)

type AccessMode string

const (
	AccessRead      AccessMode = "read"
	AccessWrite     AccessMode = "write"
	AccessReadWrite AccessMode = "read-write"
)

// Merge combines two observed access modes.
func (a AccessMode) Merge(b AccessMode) AccessMode {
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	default:
		return AccessReadWrite
	}
}

// ConnectedResource is another file the project opens.
type ConnectedResource struct {
	ID        string       `json:"id"`
	Kind      ResourceKind `json:"kind"`
	Access    AccessMode   `json:"access"`
	Reference string       `json:"reference"`
	Location  string       `json:"location"`
}

type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

type Invocation string

const (
	InvocationManual    Invocation = "manual"
	InvocationTriggered Invocation = "triggered"
)

// AnalysisResult is the full, immutable output of one engine run.
type AnalysisResult struct {
	Project            string               `json:"project"`
	Files              []string             `json:"files"`
	LinesOfCode        int                  `json:"lines_of_code"`
	Complexity         Complexity           `json:"complexity"`
	Invocation         Invocation           `json:"invocation"`
	Functions          []FunctionRecord     `json:"functions"`
	ExternalCalls      []ExternalCall       `json:"external_calls"`
	GoogleServices     []GoogleServiceUsage `json:"google_services"`
	Triggers           []TriggerRecord      `json:"triggers"`
	ConnectedResources []ConnectedResource  `json:"connected_resources"`
	BusinessLogic      BusinessLogic        `json:"business_logic"`
	Summary            FunctionalSummary    `json:"summary"`
}

// ScriptAnalysisIn drives one analysis through the worker.
type ScriptAnalysisIn struct {
	ProjectID string     `json:"project_id"`
	Unit      SourceUnit `json:"unit"`
}

type ScriptAnalysisOut struct {
	ProjectID string         `json:"project_id"`
	Result    AnalysisResult `json:"result"`
}
