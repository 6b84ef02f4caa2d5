// Package template implements the field-reference placeholder syntax used
// inside node configuration values.
//
// A placeholder names an output field of an upstream node and is substituted
// by the execution engine at run time:
//
//	{{node_key.field}}
//
// where node_key identifies the upstream node and field names one of its
// declared outputs. The generation pipeline writes placeholders when wiring
// data flow between nodes; this package provides construction, discovery,
// flattening (webhook payload references must stay single-level), and
// expansion against a map of resolved outputs.
//
// Expansion behavior for missing references is configurable:
//
//	exp := template.NewExpander(template.WithMissingAction(template.MissingError))
//	out, err := exp.Expand("Hi {{trigger.name}}", outputs)
package template
