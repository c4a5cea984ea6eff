package artifact

type Severity string

const (
	SeverityCritical  Severity = "critical"
	SeverityImportant Severity = "important"
	SeverityStandard  Severity = "standard"
)

// BusinessLogic groups everything reconstructed from conditionals and assignments.
type BusinessLogic struct {
	Rules           []BusinessRule        `json:"rules"`
	Validations     []ValidationCheck     `json:"validations"`
	StatusFlows     []StatusFlow          `json:"status_flows"`
	Calculations    []BusinessCalculation `json:"calculations"`
	DecisionTrees   []DecisionNode        `json:"decision_trees"`
	Transformations []DataTransformation  `json:"transformations"`
}

type BusinessRule struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Condition          string   `json:"condition"`
	ExplainedCondition string   `json:"explained_condition"`
	Action             string   `json:"action"`
	ExplainedAction    string   `json:"explained_action"`
	Severity           Severity `json:"severity,omitempty"`
	Location           string   `json:"location,omitempty"`
}

type ValidationCheck struct {
	ID           string `json:"id"`
	Field        string `json:"field"`
	Condition    string `json:"condition"`
	ErrorMessage string `json:"error_message,omitempty"`
	PassAction   string `json:"pass_action"`
	FailAction   string `json:"fail_action"`
	Location     string `json:"location,omitempty"`
}

type StatusValue struct {
	Value    string   `json:"value"`
	Meaning  string   `json:"meaning"`
	Terminal bool     `json:"terminal"`
	Triggers []string `json:"triggers,omitempty"`
}

type StatusTransition struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition"`
	Action    string `json:"action"`
}

type StatusFlow struct {
	Field       string             `json:"field"`
	Values      []StatusValue      `json:"values"`
	Transitions []StatusTransition `json:"transitions"`
}

type BusinessCalculation struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Formula          string   `json:"formula"`
	ExplainedFormula string   `json:"explained_formula"`
	Inputs           []string `json:"inputs"`
	Output           string   `json:"output"`
	Example          string   `json:"example,omitempty"`
	Location         string   `json:"location,omitempty"`
}

type Notification struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient,omitempty"`
	Subject   string `json:"subject,omitempty"`
}

type DecisionOutcome struct {
	Action        string        `json:"action"`
	SetsStatus    string        `json:"sets_status,omitempty"`
	Notification  *Notification `json:"notification,omitempty"`
	UpdatedFields []string      `json:"updated_fields,omitempty"`
}

type DecisionNode struct {
	ID           string           `json:"id"`
	Condition    string           `json:"condition"`
	TrueOutcome  DecisionOutcome  `json:"true_outcome"`
	FalseOutcome *DecisionOutcome `json:"false_outcome,omitempty"`
	Children     []DecisionNode   `json:"children,omitempty"`
	Location     string           `json:"location,omitempty"`
}

type DataTransformation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	InputShape  string `json:"input_shape"`
	OutputShape string `json:"output_shape"`
	Purpose     string `json:"purpose"`
	Location    string `json:"location,omitempty"`
}

// FunctionalSummary is the synthesized prose view of a project.
type FunctionalSummary struct {
	Brief    string   `json:"brief"`
	Detailed string   `json:"detailed"`
	Workflow []string `json:"workflow"`
	Inputs   []string `json:"inputs"`
	Outputs  []string `json:"outputs"`
}
