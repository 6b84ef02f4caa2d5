package integration

import "regexp"

// Patterns for configuration references inside generated code.
var (
	// dotRefPattern matches config.fieldName
	dotRefPattern = regexp.MustCompile(`\bconfig\.([a-zA-Z_][a-zA-Z0-9_]*)`)

	// bracketRefPattern matches config["fieldName"] and config['fieldName']
	bracketRefPattern = regexp.MustCompile(`\bconfig\[["']([a-zA-Z_][a-zA-Z0-9_]*)["']\]`)
)

// ExtractConfigRefs returns every configuration field the code actually
// reads, in first-use order, covering dot-access and bracket-access forms.
func ExtractConfigRefs(code string) []string {
	type ref struct {
		name string
		pos  int
	}
	var found []ref

	for _, m := range dotRefPattern.FindAllStringSubmatchIndex(code, -1) {
		found = append(found, ref{name: code[m[2]:m[3]], pos: m[0]})
	}
	for _, m := range bracketRefPattern.FindAllStringSubmatchIndex(code, -1) {
		found = append(found, ref{name: code[m[2]:m[3]], pos: m[0]})
	}

	// Sort by position, dedup by name keeping first use.
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].pos < found[j-1].pos; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}

	seen := make(map[string]bool, len(found))
	var names []string
	for _, r := range found {
		if !seen[r.name] {
			seen[r.name] = true
			names = append(names, r.name)
		}
	}
	return names
}
