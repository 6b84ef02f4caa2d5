package graphsmith

import (
	"regexp"
	"strings"
)

// cronAliases maps shorthand schedules to five-field expressions.
var cronAliases = map[string]string{
	"@hourly":   "0 * * * *",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@weekly":   "0 0 * * 0",
	"@monthly":  "0 0 1 * *",
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
}

// cronFieldPattern matches one field of a cron expression.
var cronFieldPattern = regexp.MustCompile(`^[0-9*/,\-]+$`)

// NormalizeCron validates and normalizes a schedule value into the fixed
// five-field cron representation. Aliases like "@daily" are expanded;
// whitespace is collapsed. Returns false when the value is not a valid
// five-field expression.
func NormalizeCron(s string) (string, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "", false
	}

	if expanded, ok := cronAliases[s]; ok {
		return expanded, true
	}

	fields := strings.Fields(s)
	if len(fields) != 5 {
		return "", false
	}
	for _, f := range fields {
		if !cronFieldPattern.MatchString(f) {
			return "", false
		}
	}
	return strings.Join(fields, " "), true
}
