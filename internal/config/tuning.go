package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VendorKeyword maps a URL keyword to a human description of the integration.
type VendorKeyword struct {
	Keyword     string `yaml:"keyword"`
	Description string `yaml:"description"`
	// Signal is the summary clause used when this vendor is detected.
	Signal string `yaml:"signal"`
}

// Tuning holds the engine's illustrative thresholds and vocabularies.
// Zero-valued fields fall back to DefaultTuning when loaded from YAML.
type Tuning struct {
	MediumLines      int             `yaml:"medium_lines"`
	HighLines        int             `yaml:"high_lines"`
	BaseURLSegments  int             `yaml:"base_url_segments"`
	MethodWindow     int             `yaml:"method_window"`
	AccessWindow     int             `yaml:"access_window"`
	TriggerWindow    int             `yaml:"trigger_window"`
	MaxActionSignals int             `yaml:"max_action_signals"`
	TerminalStatuses []string        `yaml:"terminal_statuses"`
	DomainTerms      []string        `yaml:"domain_terms"`
	FieldTerms       []string        `yaml:"field_terms"`
	FirstPartyHosts  []string        `yaml:"first_party_hosts"`
	StaticAssetExts  []string        `yaml:"static_asset_exts"`
	Vendors          []VendorKeyword `yaml:"vendors"`
}

// DefaultTuning returns the reference values. Callers own the returned slices.
func DefaultTuning() Tuning {
	return Tuning{
		MediumLines:      200,
		HighLines:        500,
		BaseURLSegments:  1,
		MethodWindow:     300,
		AccessWindow:     600,
		TriggerWindow:    400,
		MaxActionSignals: 3,
		TerminalStatuses: []string{
			"approved", "rejected", "completed", "complete", "done", "cancelled", "canceled",
			"closed", "archived", "denied", "declined", "failed", "expired", "paid", "hired", "resolved",
		},
		DomainTerms: []string{
			"status", "state", "stage", "balance", "approval", "approve", "approved", "approver",
			"reject", "rejected", "leave", "vacation", "holiday", "date", "deadline", "due", "expiry",
			"expire", "expired", "amount", "total", "sum", "salary", "pay", "payment", "payroll",
			"wage", "rate", "price", "cost", "invoice", "budget", "tax", "discount", "bonus",
			"overtime", "hours", "days", "employee", "manager", "department", "role", "request",
			"requested", "quota", "limit", "threshold", "score", "grade", "priority", "level",
			"eligible", "eligibility", "stock", "inventory", "order", "customer", "candidate",
			"applicant", "interview", "offer", "hire", "contract", "policy", "count", "quantity",
			"qty", "attendance", "shift", "review", "escalation", "credit", "debit",
		},
		FieldTerms: []string{
			"email", "name", "phone", "id", "title", "address", "url", "code", "password",
			"username", "comment", "reason", "description", "type", "category", "value", "age",
		},
		FirstPartyHosts: []string{"google.com", "googleapis.com", "gstatic.com", "googleusercontent.com"},
		StaticAssetExts: []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".css", ".js", ".woff", ".woff2", ".ttf", ".pdf"},
		Vendors: []VendorKeyword{
			{Keyword: "slack", Description: "Slack messaging integration", Signal: "posts updates to Slack"},
			{Keyword: "teams.microsoft", Description: "Microsoft Teams messaging integration", Signal: "posts updates to Microsoft Teams"},
			{Keyword: "greenhouse", Description: "Greenhouse ATS integration", Signal: "syncs candidates with the Greenhouse ATS"},
			{Keyword: "lever.co", Description: "Lever ATS integration", Signal: "syncs candidates with the Lever ATS"},
			{Keyword: "workable", Description: "Workable ATS integration", Signal: "syncs candidates with the Workable ATS"},
			{Keyword: "bamboohr", Description: "BambooHR HR platform integration", Signal: "syncs employee data with BambooHR"},
			{Keyword: "workday", Description: "Workday HR platform integration", Signal: "syncs employee data with Workday"},
			{Keyword: "hibob", Description: "HiBob HR platform integration", Signal: "syncs employee data with HiBob"},
			{Keyword: "personio", Description: "Personio HR platform integration", Signal: "syncs employee data with Personio"},
			{Keyword: "hubspot", Description: "HubSpot CRM integration", Signal: "updates HubSpot CRM records"},
			{Keyword: "salesforce", Description: "Salesforce CRM integration", Signal: "updates Salesforce CRM records"},
			{Keyword: "twilio", Description: "Twilio SMS integration", Signal: "sends SMS messages through Twilio"},
			{Keyword: "sendgrid", Description: "SendGrid email delivery integration", Signal: "delivers email through SendGrid"},
			{Keyword: "zapier", Description: "Zapier automation webhook", Signal: "hands off work to Zapier"},
			{Keyword: "openai", Description: "OpenAI API integration", Signal: "calls the OpenAI API"},
			{Keyword: "github", Description: "GitHub API integration", Signal: "talks to GitHub"},
			{Keyword: "jira", Description: "Jira issue tracker integration", Signal: "files issues in Jira"},
		},
	}
}

// LoadTuning reads YAML overrides from path on top of DefaultTuning.
// An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	def := DefaultTuning()
	if path == "" {
		return def, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("read tuning %s: %w", path, err)
	}
	var over Tuning
	if err := yaml.Unmarshal(raw, &over); err != nil {
		return def, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	return over.withDefaults(def), nil
}

func (t Tuning) withDefaults(def Tuning) Tuning {
	intOr := func(v, d int) int {
		if v <= 0 {
			return d
		}
		return v
	}
	listOr := func(v, d []string) []string {
		if len(v) == 0 {
			return d
		}
		return v
	}
	t.MediumLines = intOr(t.MediumLines, def.MediumLines)
	t.HighLines = intOr(t.HighLines, def.HighLines)
	t.BaseURLSegments = intOr(t.BaseURLSegments, def.BaseURLSegments)
	t.MethodWindow = intOr(t.MethodWindow, def.MethodWindow)
	t.AccessWindow = intOr(t.AccessWindow, def.AccessWindow)
	t.TriggerWindow = intOr(t.TriggerWindow, def.TriggerWindow)
	t.MaxActionSignals = intOr(t.MaxActionSignals, def.MaxActionSignals)
	t.TerminalStatuses = listOr(t.TerminalStatuses, def.TerminalStatuses)
	t.DomainTerms = listOr(t.DomainTerms, def.DomainTerms)
	t.FieldTerms = listOr(t.FieldTerms, def.FieldTerms)
	t.FirstPartyHosts = listOr(t.FirstPartyHosts, def.FirstPartyHosts)
	t.StaticAssetExts = listOr(t.StaticAssetExts, def.StaticAssetExts)
	if len(t.Vendors) == 0 {
		t.Vendors = def.Vendors
	}
	return t
}

// Normalized fills zero fields of t from DefaultTuning.
func (t Tuning) Normalized() Tuning {
	return t.withDefaults(DefaultTuning())
}
