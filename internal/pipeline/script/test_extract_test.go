package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/config"
	"scriptinsight/internal/wordidx"
)

func TestExtractFunctions(t *testing.T) {
	src := `/**
 * Sends the weekly digest.
 * @param {string} to
 */
function sendDigest(to, subject ) {
  if (to) {
    MailApp.sendEmail(to, subject, 'hi');
  }
}

function _helper() {}
function declared(a)
var x = 1;
`
	fns := ExtractFunctions(artifact.SourceFile{Name: "Code.gs", Kind: artifact.FileKindCode, Source: src})
	require.Len(t, fns, 3)

	assert.Equal(t, "sendDigest", fns[0].Name)
	assert.Equal(t, []string{"to", "subject"}, fns[0].Parameters)
	assert.Equal(t, "Sends the weekly digest.", fns[0].Description)
	assert.Equal(t, 5, fns[0].StartLine)
	assert.Equal(t, 9, fns[0].EndLine)
	assert.Equal(t, 5, fns[0].LineCount)

	assert.Equal(t, "_helper", fns[1].Name)
	assert.False(t, fns[1].IsPublic)
	assert.Empty(t, fns[1].Description)

	// no body: extent stops at the signature
	assert.Equal(t, "declared", fns[2].Name)
	assert.Equal(t, 1, fns[2].LineCount)
}

func TestExtractFunctionsUnbalancedRunsToEnd(t *testing.T) {
	src := "function open() {\n  if (x) {\n    y();\n"
	fns := ExtractFunctions(artifact.SourceFile{Name: "a.gs", Source: src})
	require.Len(t, fns, 1)
	assert.Equal(t, len(src), fns[0].End)
	assert.Equal(t, 3, fns[0].LineCount)
}

func TestExtractExternalCallFamilies(t *testing.T) {
	src := `var SLACK_WEBHOOK_URL = 'https://hooks.slack.com/services/T1/B2/xyz';
var CONFIG = { baseUrl: 'https://api.greenhouse.io/v1/candidates' };
function post() {
  UrlFetchApp.fetch(SLACK_WEBHOOK_URL, { method: 'post', payload: '{}' });
  UrlFetchApp.fetch('https://api.example.com/v2/items/' + id, { method: 'DELETE' });
  var logo = 'https://cdn.example.com/logo.png';
  var docs = 'https://docs.google.com/spreadsheets/d/abc';
  var other = "https://status.partner.io/check?x=${token}";
}`
	calls := ExtractExternalCalls(codeUnit("Calls", src), config.DefaultTuning())
	require.Len(t, calls, 4)

	assert.Equal(t, "https://api.example.com/v2", calls[0].BaseURL)
	assert.Equal(t, "DELETE", calls[0].Method)
	assert.Equal(t, "External API call to api.example.com", calls[0].Description)

	assert.Equal(t, "https://hooks.slack.com/services", calls[1].BaseURL)
	assert.Equal(t, "POST", calls[1].Method)
	assert.Equal(t, "Slack messaging integration", calls[1].Description)

	assert.Equal(t, "https://api.greenhouse.io/v1", calls[2].BaseURL)
	assert.Equal(t, "Greenhouse ATS integration", calls[2].Description)

	assert.Equal(t, "https://status.partner.io/check", calls[3].BaseURL)
	for _, c := range calls {
		assert.Equal(t, 1, c.Occurrences, c.BaseURL)
	}
}

func TestBaseURL(t *testing.T) {
	cases := []struct {
		raw  string
		n    int
		want string
	}{
		{"https://api.example.com/v1/widgets?id=1", 1, "https://api.example.com/v1"},
		{"https://api.example.com", 1, "https://api.example.com"},
		{"https://api.example.com/a/b/c#frag", 2, "https://api.example.com/a/b"},
		{"http://host:8080/x/${id}", 3, "http://host:8080/x"},
	}
	for _, tc := range cases {
		got, _, ok := baseURL(tc.raw, tc.n)
		require.True(t, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestExtractServices(t *testing.T) {
	unit := codeUnit("Svc",
		"function a() { var s = SpreadsheetApp.getActive(); GmailApp.sendEmail('x'); }",
		"// DriveApp in a comment still counts\nfunction b() { Session.getActiveUser(); }")
	got := ExtractServices(wordidx.BuildUnit(unit))

	var names []string
	for _, s := range got {
		names = append(names, s.Service)
	}
	assert.Equal(t, []string{"Google Sheets", "Google Drive", "Gmail", "Session"}, names)
}

func TestExtractTriggers(t *testing.T) {
	src := `function setup() {
  ScriptApp.newTrigger('dailyReport').timeBased().everyDays(1).atHour(9).create();
  ScriptApp.newTrigger("hourly")
    .timeBased()
    .everyHours(2)
    .create();
  ScriptApp.newTrigger('weekly').timeBased().onWeekDay(ScriptApp.WeekDay.MONDAY).atHour(8).nearMinute(30).create();
  ScriptApp.newTrigger('onSubmit').forSpreadsheet(SpreadsheetApp.getActive()).onFormSubmit().create();
  ScriptApp.newTrigger('dailyReport').timeBased().everyDays(1).atHour(9).create();
}
function doGet(e) { return HtmlService.createHtmlOutput('hi'); }
function onOpen() {}
`
	unit := codeUnit("Triggers", src)
	var fns []artifact.FunctionRecord
	for _, f := range unit.Files {
		fns = append(fns, ExtractFunctions(f)...)
	}
	got := ExtractTriggers(unit, fns)
	require.Len(t, got, 6)

	assert.Equal(t, artifact.TriggerRecord{
		Type: artifact.TriggerTimeDriven, Function: "dailyReport", Schedule: "Every day at 9:00",
		Programmatic: true, Event: "CLOCK", Location: "Code.gs:2",
	}, got[0])
	assert.Equal(t, "Every 2 hours", got[1].Schedule)
	assert.Equal(t, "Every Monday at 8:30", got[2].Schedule)
	assert.Equal(t, artifact.TriggerOnFormSubmit, got[3].Type)
	assert.Equal(t, "ON_FORM_SUBMIT", got[3].Event)

	assert.Equal(t, artifact.TriggerWebGet, got[4].Type)
	assert.False(t, got[4].Programmatic)
	assert.Equal(t, "DO_GET", got[4].Event)
	assert.Equal(t, artifact.TriggerOnOpen, got[5].Type)
}

func TestScheduleText(t *testing.T) {
	cases := map[string]string{
		".timeBased().everyMinutes(15).create()":  "Every 15 minutes",
		".timeBased().everyHours(1).create()":     "Every hour",
		".timeBased().onMonthDay(1).atHour(6)":    "Every month on day 1 at 6:00",
		".timeBased().after(600000).create()":     "Once after 10 minutes",
		".timeBased().at(new Date(2030, 1, 1))":   "Once at a specific time",
		".timeBased().atHour(17).everyDays(1)":    "Every day at 17:00",
		".timeBased().everyWeeks(2).create()":     "Every 2 weeks",
		".onEdit().create()":                      "",
	}
	for chain, want := range cases {
		_, got := classifyChain(chain)
		assert.Equal(t, want, got, chain)
	}
}

func TestExtractResources(t *testing.T) {
	src := `const LEDGER_ID = '1AbC-ledger';
var TEMPLATE_URL = 'https://docs.google.com/document/d/9xYz_doc/edit';
function run() {
  var ledger = SpreadsheetApp.openById(LEDGER_ID);
  var rows = ledger.getSheetByName('Rows').getDataRange().getValues();
  var doc = DocumentApp.openByUrl(TEMPLATE_URL);
  doc.getBody().replaceText('{{name}}', 'x');
  var folder = DriveApp.getFolderById(folderId);
  SpreadsheetApp.getActiveSpreadsheet().getSheets()[0].appendRow(['a']);
  SpreadsheetApp.openById(LEDGER_ID).getSheets()[0].appendRow(rows[0]);
}`
	got := ExtractResources(codeUnit("Res", src), 120)
	require.Len(t, got, 4)

	assert.Equal(t, "1AbC-ledger", got[0].ID)
	assert.Equal(t, artifact.ResourceSpreadsheet, got[0].Kind)
	assert.Equal(t, artifact.AccessReadWrite, got[0].Access)
	assert.Equal(t, "Code.gs:4", got[0].Location)

	assert.Equal(t, "9xYz_doc", got[1].ID)
	assert.Equal(t, artifact.ResourceDocument, got[1].Kind)

	assert.Equal(t, "folderId", got[2].ID)
	assert.Equal(t, artifact.ResourceDriveFile, got[2].Kind)

	assert.Equal(t, artifact.ResourceActiveContainer, got[3].Kind)
	assert.Equal(t, "active", got[3].ID)
}
