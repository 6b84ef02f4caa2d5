// Package integration holds the data-driven lookup tables used by the
// custom-capability post-pass: endpoint-substring to service mappings,
// credential field classification, resource-pattern metadata, and
// extraction of configuration references from generated code.
package integration

import "strings"

// endpointMapping pairs an API endpoint substring with the service it
// identifies.
type endpointMapping struct {
	Substring string
	Service   string
}

// endpointServices is the fixed endpoint-substring to service table.
// Order matters: the first match wins.
var endpointServices = []endpointMapping{
	{"hooks.slack.com", "slack"},
	{"api.slack.com", "slack"},
	{"slack.com/api", "slack"},
	{"sheets.googleapis.com", "google_sheets"},
	{"gmail.googleapis.com", "gmail"},
	{"www.googleapis.com/gmail", "gmail"},
	{"drive.googleapis.com", "google_drive"},
	{"calendar.googleapis.com", "google_calendar"},
	{"api.github.com", "github"},
	{"api.stripe.com", "stripe"},
	{"api.twilio.com", "twilio"},
	{"api.sendgrid.com", "sendgrid"},
	{"api.notion.com", "notion"},
	{"api.airtable.com", "airtable"},
	{"discord.com/api", "discord"},
	{"api.telegram.org", "telegram"},
	{"api.trello.com", "trello"},
	{"api.hubapi.com", "hubspot"},
	{"api.dropboxapi.com", "dropbox"},
	{"graph.microsoft.com", "microsoft"},
}

// Detect reports which third-party service, if any, the given code calls,
// based on API endpoint substrings.
func Detect(code string) (service string, ok bool) {
	lower := strings.ToLower(code)
	for _, m := range endpointServices {
		if strings.Contains(lower, m.Substring) {
			return m.Service, true
		}
	}
	return "", false
}

// Services returns the distinct services in the detection table.
func Services() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range endpointServices {
		if !seen[m.Service] {
			seen[m.Service] = true
			out = append(out, m.Service)
		}
	}
	return out
}
