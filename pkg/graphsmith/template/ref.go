package template

import (
	"fmt"
	"regexp"
	"strings"
)

// refPattern matches {{node.field}} placeholders. The field part may be a
// dotted path; Flatten reduces it to a single level.
var refPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_-]*)\.([a-zA-Z_][a-zA-Z0-9_.-]*)\s*\}\}`)

// Reference is a parsed field-reference placeholder.
type Reference struct {
	// Node is the upstream node key.
	Node string
	// Field is the named output, possibly a dotted path.
	Field string
}

// String renders the reference back into placeholder form.
func (r Reference) String() string {
	return Ref(r.Node, r.Field)
}

// Ref builds a placeholder for the named output of an upstream node.
func Ref(node, field string) string {
	return fmt.Sprintf("{{%s.%s}}", node, field)
}

// ParseRef parses s as a single placeholder. It returns false unless the
// entire string (modulo surrounding whitespace) is one placeholder.
func ParseRef(s string) (Reference, bool) {
	m := refPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || m[0] != strings.TrimSpace(s) {
		return Reference{}, false
	}
	return Reference{Node: m[1], Field: m[2]}, true
}

// Refs returns every placeholder found in s, in order of appearance.
func Refs(s string) []Reference {
	matches := refPattern.FindAllStringSubmatch(s, -1)
	if matches == nil {
		return nil
	}
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, Reference{Node: m[1], Field: m[2]})
	}
	return refs
}

// Contains reports whether s holds at least one placeholder.
func Contains(s string) bool {
	return refPattern.MatchString(s)
}

// Flatten rewrites every placeholder in s so its field path has a single
// level: {{webhook.data.user.email}} becomes {{webhook.data}}. Payload
// references produced for webhook-sourced data must be flat.
func Flatten(s string) string {
	return refPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := refPattern.FindStringSubmatch(match)
		field := m[2]
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[:i]
		}
		return Ref(m[1], field)
	})
}

// Expander substitutes placeholders using resolved node outputs.
// Expander is safe for concurrent use after construction.
type Expander struct {
	missingAction MissingAction
}

// NewExpander creates an Expander with the given options.
// The default keeps unresolved placeholders as-is.
func NewExpander(opts ...Option) *Expander {
	e := &Expander{missingAction: MissingKeep}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand substitutes placeholders in s using outputs, a map of node key to
// that node's resolved output fields. Dotted field paths resolve through
// nested maps.
func (e *Expander) Expand(s string, outputs map[string]map[string]any) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	result := refPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := refPattern.FindStringSubmatch(match)
		node, field := m[1], m[2]

		if fields, ok := outputs[node]; ok {
			if val, ok := lookupPath(fields, field); ok {
				return fmt.Sprintf("%v", val)
			}
		}

		switch e.missingAction {
		case MissingEmpty:
			return ""
		case MissingError:
			missing = append(missing, node+"."+field)
			return match // keep for now, will return error
		default: // MissingKeep
			return match
		}
	})

	if len(missing) > 0 {
		return result, &UnresolvedReferenceError{Refs: missing}
	}
	return result, nil
}

// ExpandMap expands placeholders in all string values of a config map.
// Non-string values are copied as-is; nested maps expand recursively.
func (e *Expander) ExpandMap(m map[string]any, outputs map[string]map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}

	result := make(map[string]any, len(m))
	for k, v := range m {
		expanded, err := e.expandValue(v, outputs)
		if err != nil {
			return nil, err
		}
		result[k] = expanded
	}
	return result, nil
}

func (e *Expander) expandValue(v any, outputs map[string]map[string]any) (any, error) {
	switch val := v.(type) {
	case string:
		return e.Expand(val, outputs)
	case map[string]any:
		return e.ExpandMap(val, outputs)
	default:
		return v, nil
	}
}

// lookupPath resolves a dotted field path through nested maps.
func lookupPath(fields map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = fields
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// UnresolvedReferenceError is returned when MissingError is set and one or
// more placeholders could not be resolved.
type UnresolvedReferenceError struct {
	// Refs lists the unresolved references as "node.field".
	Refs []string
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	if len(e.Refs) == 1 {
		return fmt.Sprintf("unresolved reference: %s", e.Refs[0])
	}
	return fmt.Sprintf("unresolved references: %s", strings.Join(e.Refs, ", "))
}

// defaultExpander is the package-level expander with default settings.
var defaultExpander = NewExpander()

// Expand substitutes placeholders using the default expander.
// Unresolved placeholders stay as-is.
func Expand(s string, outputs map[string]map[string]any) string {
	result, _ := defaultExpander.Expand(s, outputs)
	return result
}
