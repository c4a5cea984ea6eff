package logic

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/config"
)

// unitOf wraps src as a one-file unit with a single function spanning it.
func unitOf(src string, fnName string) (artifact.SourceUnit, []artifact.FunctionRecord) {
	unit := artifact.SourceUnit{Name: "T", Files: []artifact.SourceFile{
		{Name: "Code.gs", Kind: artifact.FileKindCode, Source: src},
	}}
	fns := []artifact.FunctionRecord{{Name: fnName, File: "Code.gs", Start: 0, End: len(src)}}
	return unit, fns
}

func extract(src, fnName string) artifact.BusinessLogic {
	unit, fns := unitOf(src, fnName)
	return Extract(unit, fns, config.DefaultTuning())
}

func TestRulesFromConditionals(t *testing.T) {
	src := `function process(req) {
  if (leaveBalance < requestedDays) { status = "rejected"; }
  if (req.amount > 1000) {
    MailApp.sendEmail(manager, 'Large request', body);
  }
  if (i > 3) { count = 0; }
  if (req.priority === 'high') { throw new Error('Escalate manually'); }
}`
	bl := extract(src, "process")
	require.Len(t, bl.Rules, 3)

	r := bl.Rules[0]
	assert.Equal(t, "rule-1", r.ID)
	assert.Equal(t, "leaveBalance < requestedDays", r.Condition)
	assert.Equal(t, "leave balance is less than requested days", r.ExplainedCondition)
	assert.Equal(t, `status = "rejected"`, r.Action)
	assert.Equal(t, `Set status to "rejected"`, r.ExplainedAction)
	assert.Equal(t, artifact.SeverityCritical, r.Severity)
	assert.Equal(t, "Code.gs:2", r.Location)
	assert.Equal(t, "Process: leave balance is less than requested days", r.Name)

	assert.Equal(t, artifact.SeverityImportant, bl.Rules[1].Severity)
	assert.Equal(t, "Send email notification to manager", bl.Rules[1].ExplainedAction)

	assert.Equal(t, "Raise error: Escalate manually", bl.Rules[2].ExplainedAction)
	assert.Equal(t, artifact.SeverityCritical, bl.Rules[2].Severity)
}

func TestTernaryAndSwitchRules(t *testing.T) {
	src := `function grade(score) {
  var level = score >= 90 ? 'gold' : 'silver';
  switch (request.type) {
    case 'vacation':
      approval = 'manager';
      break;
    case 'sick':
    default:
      status = 'review';
  }
  switch (x) {
    case 1: y = 2; break;
  }
}`
	bl := extract(src, "grade")
	require.Len(t, bl.Rules, 2)

	assert.Equal(t, "score >= 90", bl.Rules[0].Condition)
	assert.Equal(t, `Set level to "gold", otherwise "silver"`, bl.Rules[0].ExplainedAction)

	sw := bl.Rules[1]
	assert.Equal(t, "rule-2", sw.ID)
	assert.Equal(t, "request.type", sw.Condition)
	assert.Equal(t, "depending on request's type", sw.ExplainedCondition)
	assert.Equal(t, "Grade: depending on request's type", sw.Name)
	assert.Equal(t, `when request's type is "vacation": Set approval to "manager"; otherwise: Set status to "review"`, sw.ExplainedAction)
	assert.True(t, strings.HasPrefix(sw.Action, "case 'vacation': "))
	assert.Contains(t, sw.Action, " | default: ")
	assert.Equal(t, artifact.SeverityImportant, sw.Severity)
	assert.Equal(t, "Code.gs:3", sw.Location)
}

func TestSwitchCombinesCases(t *testing.T) {
	src := `function settle(req) {
  switch (req.status) {
    case 'approved':
      MailApp.sendEmail(req.email, 'Approved', body);
      break;
    case 'rejected':
    case 'expired':
      req.state = 'denied';
      break;
    default:
      return;
  }
}`
	bl := extract(src, "settle")
	require.Len(t, bl.Rules, 1)

	r := bl.Rules[0]
	assert.Equal(t, "req.status", r.Condition)
	assert.Equal(t, artifact.SeverityCritical, r.Severity)
	assert.Contains(t, r.ExplainedAction, `when req's status is "approved": `)
	assert.Contains(t, r.ExplainedAction, `; when req's status is "rejected" or "expired": `)
	assert.Contains(t, r.Action, "case 'rejected', 'expired': ")
}

func TestRuleNameCutsOnRunes(t *testing.T) {
	long := strings.Repeat("é", 70)
	name := ruleName("", long)
	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, strings.Repeat("É", 1)+strings.Repeat("é", 59)+"...", name)
}

func TestValidations(t *testing.T) {
	src := `function validateRequest(req) {
  if (req.days > 30) { throw new Error('Too many days'); }
  if (!req.email) { return false; }
}
function submit(form) {
  if (!form.email) { errors.push('Email is required'); }
  if (form.name.length < 3) { return null; }
  if (form.age < 18 || form.age > 65) { form.status = 'invalid'; }
  if (!/^\d{10}$/.test(form.phone)) { throw new Error('Bad phone'); }
  if (!tmp) { return false; }
}`
	unit := artifact.SourceUnit{Files: []artifact.SourceFile{{Name: "Code.gs", Kind: artifact.FileKindCode, Source: src}}}
	split := strings.Index(src, "function submit")
	fns := []artifact.FunctionRecord{
		{Name: "validateRequest", File: "Code.gs", Start: 0, End: split},
		{Name: "submit", File: "Code.gs", Start: split, End: len(src)},
	}
	bl := Extract(unit, fns, config.DefaultTuning())
	require.Len(t, bl.Validations, 6)

	v := bl.Validations[0]
	assert.Equal(t, "validation-1", v.ID)
	assert.Equal(t, "days", v.Field)
	assert.Equal(t, "req's days is greater than 30", v.Condition)
	assert.Equal(t, "Too many days", v.ErrorMessage)
	assert.Equal(t, "Throw error", v.FailAction)

	assert.Equal(t, "Return false", bl.Validations[1].FailAction)
	assert.Equal(t, "req's email is missing", bl.Validations[1].Condition)

	assert.Equal(t, "Record error", bl.Validations[2].FailAction)
	assert.Equal(t, "Email is required", bl.Validations[2].ErrorMessage)
	assert.Equal(t, "name", bl.Validations[3].Field)
	assert.Equal(t, "Return null", bl.Validations[3].FailAction)
	assert.Equal(t, "age", bl.Validations[4].Field)
	assert.Equal(t, `Set status to "invalid"`, bl.Validations[4].FailAction)
	assert.Equal(t, "phone", bl.Validations[5].Field)
	assert.Equal(t, "form's phone does not match the expected format", bl.Validations[5].Condition)

	// the pure inline checks never become decisions
	for _, d := range bl.DecisionTrees {
		assert.NotContains(t, d.Condition, "email")
	}
}

func TestStatusFlow(t *testing.T) {
	src := `function advance(req, row) {
  req.status = 'pending';
  if (req.status === 'pending') {
    req.status = 'approved';
    MailApp.sendEmail(req.email, 'Approved', 'ok');
  }
  if (req.status == 'approved') { setStatus('paid'); }
  row['status'] = 'rejected';
  var draft = { status: 'draft' };
}`
	bl := extract(src, "advance")
	require.Len(t, bl.StatusFlows, 1)
	flow := bl.StatusFlows[0]
	assert.Equal(t, "status", flow.Field)

	byValue := map[string]artifact.StatusValue{}
	var order []string
	for _, v := range flow.Values {
		byValue[v.Value] = v
		order = append(order, v.Value)
	}
	assert.Equal(t, []string{"pending", "approved", "paid", "rejected", "draft"}, order)

	assert.Equal(t, "Waiting for a decision", byValue["pending"].Meaning)
	assert.False(t, byValue["pending"].Terminal)
	assert.Contains(t, byValue["approved"].Triggers, "Sends email notification")
	// approved is both entered and left, so it is not an end state
	assert.False(t, byValue["approved"].Terminal)
	assert.True(t, byValue["paid"].Terminal)
	assert.True(t, byValue["rejected"].Terminal)

	require.Len(t, flow.Transitions, 2)
	assert.Equal(t, artifact.StatusTransition{
		From:      "pending",
		To:        "approved",
		Condition: `req's status is "pending"`,
		Action:    `Set status to "approved"; Send email notification to req's email`,
	}, flow.Transitions[0])
	assert.Equal(t, "approved", flow.Transitions[1].From)
	assert.Equal(t, "paid", flow.Transitions[1].To)
}

func TestCalculations(t *testing.T) {
	src := `function payroll(emp) {
  leaveBalance = leaveBalance - usedDays;
  var grossPay = hoursWorked * hourlyRate;
  total += grossPay;
  var days = (endDate - startDate) / (1000 * 60 * 60 * 24);
  var completion = (done / planned) * 100;
  var netAmount = grossPay - taxAmount;
  bonus *= 1.1;
  var label = 'a' + 'b';
}`
	bl := extract(src, "payroll")
	var names []string
	for _, c := range bl.Calculations {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"Balance deduction",
		"Pay calculation",
		"Running total",
		"Date difference in days",
		"Percentage",
		"Net amount calculation",
		"Bonus accumulation",
	}, names)

	bd := bl.Calculations[0]
	assert.Equal(t, "calc-1", bd.ID)
	assert.Equal(t, "leaveBalance", bd.Output)
	assert.Equal(t, []string{"leaveBalance", "usedDays"}, bd.Inputs)
	assert.Equal(t, "leave balance becomes leave balance minus used days", bd.ExplainedFormula)

	dd := bl.Calculations[3]
	assert.Equal(t, "days = (endDate - startDate) / 86400000", dd.Formula)
	assert.Equal(t, []string{"endDate", "startDate"}, dd.Inputs)
}

func TestCalculationsBareAccumulators(t *testing.T) {
	src := `function tally(item) {
  balance -= requestedDays;
  sum += x;
  subtotal += item.amount;
}`
	bl := extract(src, "tally")
	require.Len(t, bl.Calculations, 3)

	bd := bl.Calculations[0]
	assert.Equal(t, "Balance deduction", bd.Name)
	assert.Equal(t, "balance = balance - requestedDays", bd.Formula)
	assert.Equal(t, "Deducts requested days from the balance", bd.Description)

	assert.Equal(t, "Running total", bl.Calculations[1].Name)
	assert.Equal(t, "sum = sum + x", bl.Calculations[1].Formula)
	assert.Equal(t, "Running total", bl.Calculations[2].Name)
	assert.Equal(t, "subtotal = subtotal + item.amount", bl.Calculations[2].Formula)
	assert.Equal(t, "Code.gs:4", bl.Calculations[2].Location)
}

func TestDecisionTrees(t *testing.T) {
	src := `function route(req) {
  if (req.amount > 5000) {
    req.status = 'escalated';
    notifyDirector(req);
    if (req.priority === 'urgent') { MailApp.sendEmail(ceo, 'Urgent', msg); }
  } else if (req.amount > 1000) {
    req.status = 'manager-review';
  }
  if (!req.email) { return false; }
  if (req.approved) { approvedCount += 1; } else { rejectedCount += 1; }
}`
	bl := extract(src, "route")
	require.Len(t, bl.DecisionTrees, 2)

	root := bl.DecisionTrees[0]
	assert.Equal(t, "decision-1", root.ID)
	assert.Equal(t, "req's amount is greater than 5000", root.Condition)
	assert.Equal(t, "escalated", root.TrueOutcome.SetsStatus)
	require.NotNil(t, root.TrueOutcome.Notification)
	assert.Equal(t, "notification", root.TrueOutcome.Notification.Channel)
	require.NotNil(t, root.FalseOutcome)
	assert.Equal(t, "Evaluate next condition: req's amount is greater than 1000", root.FalseOutcome.Action)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "decision-2", root.Children[0].ID)
	assert.Equal(t, "email", root.Children[0].TrueOutcome.Notification.Channel)
	assert.Equal(t, "Urgent", root.Children[0].TrueOutcome.Notification.Subject)

	last := bl.DecisionTrees[1]
	assert.Equal(t, "req's approved", last.Condition)
	assert.Equal(t, []string{"approvedCount"}, last.TrueOutcome.UpdatedFields)
	require.NotNil(t, last.FalseOutcome)
	assert.Equal(t, []string{"rejectedCount"}, last.FalseOutcome.UpdatedFields)
}

func TestTransformations(t *testing.T) {
	src := `function build(rows, employees) {
  var emails = employees.map(function (e) { return e.email; });
  var sum = rows.reduce(function (acc, row) { return acc + row.amount; }, 0);
  var open = items.filter(function (i) { return i.status === 'open'; });
  var record = { start: req.startDate, end: req.endDate, due: req.dueDate };
}`
	bl := extract(src, "build")
	require.Len(t, bl.Transformations, 4)

	assert.Equal(t, "transform-1", bl.Transformations[0].ID)
	assert.Equal(t, "Mapping of employees", bl.Transformations[0].Name)
	assert.Equal(t, "Employee data processing", bl.Transformations[0].Purpose)
	assert.Equal(t, "Aggregation of rows", bl.Transformations[1].Name)
	assert.Equal(t, "Spreadsheet row processing", bl.Transformations[1].Purpose)
	assert.Equal(t, "Status tracking", bl.Transformations[2].Purpose)
	assert.Equal(t, "{start, end, due}", bl.Transformations[3].OutputShape)
	assert.Equal(t, "Date handling", bl.Transformations[3].Purpose)
}

func TestExtractEmpty(t *testing.T) {
	bl := Extract(artifact.SourceUnit{}, nil, config.Tuning{})
	assert.NotNil(t, bl.Rules)
	assert.NotNil(t, bl.Validations)
	assert.NotNil(t, bl.StatusFlows)
	assert.NotNil(t, bl.Calculations)
	assert.NotNil(t, bl.DecisionTrees)
	assert.NotNil(t, bl.Transformations)
}
