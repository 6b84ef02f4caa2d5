package integration

import (
	"strings"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// ConnectionFieldName is the single field injected into a generated node's
// schema when an integration is detected.
const ConnectionFieldName = "connection"

// credentialPatterns match (normalized) field names that carry secrets.
// Normalization lowercases and strips separators, so "api_key", "API-Key"
// and "apiKey" all collapse to "apikey".
var credentialPatterns = []string{
	"apikey",
	"apisecret",
	"accesstoken",
	"refreshtoken",
	"bearertoken",
	"authtoken",
	"token",
	"secret",
	"password",
	"credential",
	"privatekey",
	"clientid",
	"clientsecret",
}

// IsCredentialField reports whether the field name looks credential-shaped.
// Credential values come from the external connection mechanism and must
// never appear in user-entered configuration.
func IsCredentialField(name string) bool {
	norm := normalizeFieldName(name)
	if norm == "auth" || norm == "authorization" || norm == "key" {
		return true
	}
	for _, p := range credentialPatterns {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

func normalizeFieldName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r == '_' || r == '-' || r == ' ' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ConnectionField builds the "connect this account" schema field for a
// detected service.
func ConnectionField(service string) workflow.Field {
	return workflow.Field{
		Type:        workflow.FieldConnection,
		Label:       "Connect " + displayName(service),
		Description: "Account used to authorize calls to " + displayName(service),
		Required:    true,
		Integration: service,
	}
}

// displayName renders a service identifier as a human-readable name.
func displayName(service string) string {
	parts := strings.Split(service, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
