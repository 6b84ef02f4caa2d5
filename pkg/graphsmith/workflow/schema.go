package workflow

// FieldType enumerates configuration field types.
type FieldType string

// Known field types.
const (
	FieldString     FieldType = "string"
	FieldNumber     FieldType = "number"
	FieldBoolean    FieldType = "boolean"
	FieldSelect     FieldType = "select"
	FieldTextarea   FieldType = "textarea"
	FieldCron       FieldType = "cron"
	FieldConnection FieldType = "connection"
)

// Field declares one configuration field of a capability.
type Field struct {
	Type        FieldType `json:"type"`
	Label       string    `json:"label,omitempty"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Default     any       `json:"default,omitempty"`
	Options     []string  `json:"options,omitempty"`

	// Credential marks a field bound to an integration credential. Such
	// fields are never filled by the pipeline; values come from the
	// external connection mechanism.
	Credential bool `json:"credential,omitempty"`

	// Integration names the service a connection field authorizes.
	Integration string `json:"integration,omitempty"`

	// Resource names the integration resource kind the field selects
	// (e.g. a chat channel, a spreadsheet).
	Resource string `json:"resource,omitempty"`
}

// Schema maps field names to their declarations.
type Schema map[string]Field

// Fillable returns the field names the pipeline is allowed to configure:
// everything except connection fields and credential-bound fields.
func (s Schema) Fillable() []string {
	var names []string
	for name, f := range s {
		if f.Type == FieldConnection || f.Credential {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Clone returns a shallow copy of the schema.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
