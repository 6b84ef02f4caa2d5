package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefRoundTrip(t *testing.T) {
	s := Ref("node_a1b2", "subject")
	assert.Equal(t, "{{node_a1b2.subject}}", s)

	ref, ok := ParseRef(s)
	require.True(t, ok)
	assert.Equal(t, "node_a1b2", ref.Node)
	assert.Equal(t, "subject", ref.Field)
	assert.Equal(t, s, ref.String())
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
		node  string
		field string
	}{
		{"plain", "{{trigger.rowData}}", true, "trigger", "rowData"},
		{"dotted path", "{{webhook.payload.user.email}}", true, "webhook", "payload.user.email"},
		{"surrounding whitespace", "  {{a.b}}  ", true, "a", "b"},
		{"inner whitespace", "{{ a.b }}", true, "a", "b"},
		{"embedded in text", "Hello {{a.b}}", false, "", ""},
		{"no field", "{{node}}", false, "", ""},
		{"empty", "", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ParseRef(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.node, ref.Node)
				assert.Equal(t, tt.field, ref.Field)
			}
		})
	}
}

func TestRefs(t *testing.T) {
	refs := Refs("Send {{sheet.rowData}} to {{format.text}} now")
	require.Len(t, refs, 2)
	assert.Equal(t, "sheet", refs[0].Node)
	assert.Equal(t, "format", refs[1].Node)

	assert.Nil(t, Refs("no placeholders here"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("value is {{a.b}}"))
	assert.False(t, Contains("value is plain"))
	assert.False(t, Contains("{{notaref}}"))
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"{{webhook.data.user.email}}", "{{webhook.data}}"},
		{"{{webhook.data}}", "{{webhook.data}}"},
		{"a {{w.x.y}} b {{n.f}}", "a {{w.x}} b {{n.f}}"},
		{"no refs", "no refs"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Flatten(tt.input))
	}
}

func TestExpand(t *testing.T) {
	outputs := map[string]map[string]any{
		"sheet": {"rowData": "42,acme,paid"},
		"webhook": {
			"payload": map[string]any{"user": map[string]any{"email": "a@b.c"}},
		},
	}

	assert.Equal(t, "row: 42,acme,paid", Expand("row: {{sheet.rowData}}", outputs))
	assert.Equal(t, "a@b.c", Expand("{{webhook.payload.user.email}}", outputs))

	// Unresolved placeholders stay as-is by default.
	assert.Equal(t, "{{missing.field}}", Expand("{{missing.field}}", outputs))
}

func TestExpandMissingActions(t *testing.T) {
	outputs := map[string]map[string]any{}

	empty := NewExpander(WithMissingAction(MissingEmpty))
	got, err := empty.Expand("x={{a.b}}", outputs)
	require.NoError(t, err)
	assert.Equal(t, "x=", got)

	strict := NewExpander(WithMissingAction(MissingError))
	_, err = strict.Expand("x={{a.b}}", outputs)
	var unresolved *UnresolvedReferenceError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []string{"a.b"}, unresolved.Refs)
}

func TestExpandMap(t *testing.T) {
	outputs := map[string]map[string]any{
		"trigger": {"subject": "Invoice 7"},
	}
	config := map[string]any{
		"subject": "Re: {{trigger.subject}}",
		"count":   3,
		"nested":  map[string]any{"body": "{{trigger.subject}}"},
	}

	got, err := NewExpander().ExpandMap(config, outputs)
	require.NoError(t, err)
	assert.Equal(t, "Re: Invoice 7", got["subject"])
	assert.Equal(t, 3, got["count"])
	assert.Equal(t, "Invoice 7", got["nested"].(map[string]any)["body"])
}
