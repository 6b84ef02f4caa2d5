package integration

import "strings"

// ResourceRule maps a field-name pattern to the integration resource it
// selects. Used to attach resource metadata to synthesized schema fields.
type ResourceRule struct {
	// Pattern is a substring matched against the normalized field name.
	Pattern string
	// Service is the integration the resource belongs to.
	Service string
	// Resource is the resource kind within the service.
	Resource string
}

// resourceRules is the fixed field-name-pattern to resource table.
// Order matters: the first match wins.
var resourceRules = []ResourceRule{
	{"channel", "slack", "channel"},
	{"spreadsheet", "google_sheets", "spreadsheet"},
	{"worksheet", "google_sheets", "worksheet"},
	{"sheet", "google_sheets", "spreadsheet"},
	{"repository", "github", "repository"},
	{"repo", "github", "repository"},
	{"database", "notion", "database"},
	{"board", "trello", "board"},
	{"basetable", "airtable", "table"},
	{"base", "airtable", "base"},
	{"calendar", "google_calendar", "calendar"},
	{"folder", "google_drive", "folder"},
}

// ResourceFor returns the resource rule matching a field name, if any.
// When service is non-empty, only rules for that service match; pass ""
// to match across all services.
func ResourceFor(service, fieldName string) (ResourceRule, bool) {
	norm := normalizeFieldName(fieldName)
	for _, r := range resourceRules {
		if service != "" && r.Service != service {
			continue
		}
		if strings.Contains(norm, r.Pattern) {
			return r, true
		}
	}
	return ResourceRule{}, false
}
