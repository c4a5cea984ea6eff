package script

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/config"
	"scriptinsight/internal/scan"
)

// Each family captures the URL literal in the group named "url".
var callFamilies = []*regexp.Regexp{
	// (a) direct fetch call sites
	regexp.MustCompile(`UrlFetchApp\s*\.\s*fetch(?:All)?\s*\(\s*['"` + "`" + `](?P<url>https?://[^'"` + "`" + `\s]+)`),
	// (b) URL-like local variables
	regexp.MustCompile(`(?i)\b(?:var|let|const)\s+[\w$]*(?:url|endpoint|api|webhook|host)[\w$]*\s*=\s*['"` + "`" + `](?P<url>https?://[^'"` + "`" + `\s]+)`),
	// (c) configuration-object fields
	regexp.MustCompile(`\b(?:BASE_URL|API_URL|API_BASE|baseUrl|baseURL|apiUrl|apiURL|apiBase|endpoint|ENDPOINT|webhookUrl|WEBHOOK_URL|url|URL|host)\s*:\s*['"` + "`" + `](?P<url>https?://[^'"` + "`" + `\s]+)`),
	// (d) any other URL-shaped literal
	regexp.MustCompile(`['"` + "`" + `](?P<url>https?://[^'"` + "`" + `\s]+)`),
}

var reMethodLiteral = regexp.MustCompile(`(?i)['"](post|put|delete|patch)['"]`)

type callKey struct {
	base   string
	method string
}

// ExtractExternalCalls finds outbound endpoints across the code files of unit.
// Entries are merged by (base URL, method) in first-occurrence order.
func ExtractExternalCalls(unit artifact.SourceUnit, tun config.Tuning) []artifact.ExternalCall {
	var (
		order []callKey
		byKey = map[callKey]*artifact.ExternalCall{}
	)
	for _, file := range unit.CodeFiles() {
		text := file.Source
		lines := scan.NewLineIndex(text)
		claimed := map[int]bool{} // url offsets already counted by an earlier family
		for fam, re := range callFamilies {
			ui := re.SubexpIndex("url")
			for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
				uStart, uEnd := m[2*ui], m[2*ui+1]
				if claimed[uStart] {
					continue
				}
				raw := text[uStart:uEnd]
				if fam == len(callFamilies)-1 && !isThirdParty(raw, tun) {
					continue
				}
				base, host, ok := baseURL(raw, tun.BaseURLSegments)
				if !ok {
					continue
				}
				claimed[uStart] = true
				key := callKey{base: base, method: inferMethod(text, m[0], tun.MethodWindow)}
				if rec, ok := byKey[key]; ok {
					rec.Occurrences++
					continue
				}
				order = append(order, key)
				byKey[key] = &artifact.ExternalCall{
					BaseURL:     base,
					Method:      key.method,
					Description: describeEndpoint(raw, host, tun.Vendors),
					Occurrences: 1,
					Location:    scan.Location(file.Name, lines.Line(m[0])),
				}
			}
		}
	}
	out := make([]artifact.ExternalCall, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

// baseURL keeps scheme, host and the first n path segments.
func baseURL(raw string, n int) (base, host string, ok bool) {
	if i := strings.IndexAny(raw, "?#$+"); i >= 0 {
		raw = raw[:i]
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s == "" {
			continue
		}
		if len(segs) == n {
			break
		}
		segs = append(segs, s)
	}
	base = u.Scheme + "://" + u.Host
	if len(segs) > 0 {
		base += "/" + strings.Join(segs, "/")
	}
	return base, u.Hostname(), true
}

func isThirdParty(raw string, tun config.Tuning) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, fp := range tun.FirstPartyHosts {
		if host == fp || strings.HasSuffix(host, "."+fp) {
			return false
		}
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, asset := range tun.StaticAssetExts {
		if ext == asset {
			return false
		}
	}
	return true
}

// inferMethod looks after the call site first, then before it; nearest literal wins.
func inferMethod(text string, pos, window int) string {
	after := scan.Window(text, pos, 0, window)
	if m := reMethodLiteral.FindStringSubmatch(after); m != nil {
		return strings.ToUpper(m[1])
	}
	before := scan.Window(text, pos, window, 0)
	if all := reMethodLiteral.FindAllStringSubmatch(before, -1); len(all) > 0 {
		return strings.ToUpper(all[len(all)-1][1])
	}
	return "GET"
}

func describeEndpoint(raw, host string, vendors []config.VendorKeyword) string {
	lower := strings.ToLower(raw)
	for _, v := range vendors {
		if strings.Contains(lower, v.Keyword) {
			return v.Description
		}
	}
	return "External API call to " + host
}
