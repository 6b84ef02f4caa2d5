// Package graphsmith converts a free-text automation request into a
// validated, executable workflow graph.
//
// Generation runs as a six-stage pipeline, each stage consuming the
// previous stage's typed output:
//
//  1. Intent extraction: raw request -> IntentDescriptor
//  2. Capability matching: IntentDescriptor -> CapabilityPlan, with
//     programmatic safety rewrites (single trigger, trigger/action
//     separation)
//  3. Structure synthesis: CapabilityPlan -> workflow.Graph, optionally
//     streaming partial text to a progress channel
//  4. Field configuration: fills concrete config values, skipping
//     credential-bound fields
//  5. Custom capability synthesis: generates code and schemas for nodes
//     the library cannot cover, with a bounded retry and a deterministic
//     integration post-pass
//  6. Validation and repair: structural invariants plus idempotent
//     normalization
//
// The Pipeline coordinator sequences the stages, aggregates token usage
// and timing, and emits ordered progress events:
//
//	p := graphsmith.New(client, catalog.Builtin())
//	result, err := p.Run(ctx, graphsmith.Request{Text: "email me when a row is added to my sheet"})
//
// A failed stage terminates the run; the coordinator never retries a
// stage itself. Retries, where they exist, are internal to a stage.
package graphsmith
