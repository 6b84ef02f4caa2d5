package graphsmith

import (
	"context"
	"log/slog"
	"strings"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
)

// MatchStage maps the intent onto the capability library, falling back to
// custom-node requests only where the catalogue cannot satisfy a
// requirement. Two invariants are enforced programmatically after the
// mapping is produced, not trusted to the collaborator:
//
//  1. trigger capabilities never appear with a non-trigger role
//  2. at most one planned node has the trigger role
type MatchStage struct {
	Client llm.Client
	Logger *slog.Logger
	Retry  gserrors.RetryConfig
}

// Run produces the capability plan for the intent in the pipeline context.
func (s *MatchStage) Run(ctx context.Context, pc *PipelineContext) StepResult[*CapabilityPlan] {
	resp, err := complete(ctx, s.Client, s.Retry,
		matchSystemPrompt, matchUserPrompt(pc.Intent, pc.Catalog.List()))
	if err != nil {
		return stepFail[*CapabilityPlan](err, nil)
	}
	usage := &resp.Usage

	plan, err := parseJSON[*CapabilityPlan](resp.Content)
	if err != nil {
		return stepFail[*CapabilityPlan](err, usage)
	}

	if len(plan.LibraryNodes)+len(plan.CustomNodes) == 0 {
		return stepFail[*CapabilityPlan](
			&gserrors.ValidationError{Field: "plan", Message: "no nodes planned"}, usage)
	}

	s.warnUnknownCapabilities(plan, pc)
	s.enforceTriggerSeparation(plan, pc)
	s.enforceSingleTrigger(plan)
	s.flagShadowedCustomNodes(plan, pc)

	return stepOK(plan, usage)
}

// warnUnknownCapabilities logs identifiers the registry doesn't know.
// The registry may lag the identifier list, so this never fails the stage.
func (s *MatchStage) warnUnknownCapabilities(plan *CapabilityPlan, pc *PipelineContext) {
	for _, n := range plan.LibraryNodes {
		if _, ok := pc.Catalog.Get(n.ID); !ok && s.Logger != nil {
			s.Logger.Warn("planned capability not in registry",
				slog.String("capability_id", n.ID))
		}
	}
}

// enforceTriggerSeparation removes library entries that assign a
// non-trigger role to an event-detecting capability, pruning every
// connection that references them.
func (s *MatchStage) enforceTriggerSeparation(plan *CapabilityPlan, pc *PipelineContext) {
	removed := make(map[string]bool)

	kept := plan.LibraryNodes[:0]
	for _, n := range plan.LibraryNodes {
		if pc.Catalog.IsTrigger(n.ID) && n.Role != RoleTrigger {
			removed[n.ID] = true
			if s.Logger != nil {
				s.Logger.Warn("removing trigger capability planned with non-trigger role",
					slog.String("capability_id", n.ID),
					slog.String("role", string(n.Role)),
				)
			}
			continue
		}
		kept = append(kept, n)
	}
	plan.LibraryNodes = kept

	if len(removed) == 0 {
		return
	}

	conns := plan.Connections[:0]
	for _, c := range plan.Connections {
		if removed[c.From] || removed[c.To] {
			continue
		}
		conns = append(conns, c)
	}
	plan.Connections = conns

	flows := plan.DataFlow[:0]
	for _, d := range plan.DataFlow {
		if removed[d.Source] || removed[d.Target] {
			continue
		}
		flows = append(flows, d)
	}
	plan.DataFlow = flows
}

// enforceSingleTrigger keeps only the first trigger-role entry, scanning
// library nodes before custom nodes in original order.
func (s *MatchStage) enforceSingleTrigger(plan *CapabilityPlan) {
	seen := false

	libs := plan.LibraryNodes[:0]
	for _, n := range plan.LibraryNodes {
		if n.Role == RoleTrigger {
			if seen {
				if s.Logger != nil {
					s.Logger.Warn("dropping extra trigger from plan",
						slog.String("capability_id", n.ID))
				}
				continue
			}
			seen = true
		}
		libs = append(libs, n)
	}
	plan.LibraryNodes = libs

	customs := plan.CustomNodes[:0]
	for _, n := range plan.CustomNodes {
		if n.Role == RoleTrigger {
			if seen {
				if s.Logger != nil {
					s.Logger.Warn("dropping extra trigger from plan",
						slog.String("custom_node", n.Name))
				}
				continue
			}
			seen = true
		}
		customs = append(customs, n)
	}
	plan.CustomNodes = customs
}

// flagShadowedCustomNodes logs custom nodes whose text matches a known
// library capability. Advisory only: nothing is removed.
func (s *MatchStage) flagShadowedCustomNodes(plan *CapabilityPlan, pc *PipelineContext) {
	if s.Logger == nil {
		return
	}
	for _, n := range plan.CustomNodes {
		text := strings.ToLower(n.Name + " " + n.Requirements)
		for _, cap := range pc.Catalog.List() {
			if strings.Contains(text, strings.ToLower(cap.ID)) ||
				strings.Contains(text, strings.ToLower(cap.Name)) {
				s.Logger.Warn("custom node may duplicate a library capability",
					slog.String("custom_node", n.Name),
					slog.String("capability_id", cap.ID),
				)
				break
			}
		}
	}
}
