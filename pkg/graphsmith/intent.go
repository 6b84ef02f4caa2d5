package graphsmith

import (
	"context"
	"log/slog"
	"strings"

	gserrors "github.com/randalmurphal/graphsmith/pkg/graphsmith/errors"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
)

// libraryCoveredPatterns match custom-requirement text that the capability
// library already covers. Requirements matching one of these are removed
// so the next stage is not asked to fabricate an existing capability.
var libraryCoveredPatterns = []string{
	"generate text",
	"generate content",
	"generate a message",
	"write copy",
	"write a message",
	"compose",
	"summarize",
	"summarise",
	"summary of",
	"send email",
	"send an email",
	"send a message",
	"send message",
	"send notification",
	"notify",
	"post to slack",
	"post a message",
	"make an http request",
	"call a webhook",
}

// IntentStage turns the raw request into a structured IntentDescriptor.
type IntentStage struct {
	Client llm.Client
	Logger *slog.Logger
	Retry  gserrors.RetryConfig
}

// intentPayload is the wire shape of the collaborator's answer. Pointer
// fields distinguish absent from empty: goal, triggers and actions are
// mandatory.
type intentPayload struct {
	Goal               *string   `json:"goal"`
	Triggers           *[]string `json:"triggers"`
	Actions            *[]string `json:"actions"`
	Transforms         []string  `json:"transforms"`
	CustomRequirements []string  `json:"customRequirements"`
	IsModification     bool      `json:"isModification"`
}

// Run extracts the intent from the request in the pipeline context.
func (s *IntentStage) Run(ctx context.Context, pc *PipelineContext) StepResult[*IntentDescriptor] {
	resp, err := complete(ctx, s.Client, s.Retry,
		intentSystemPrompt, intentUserPrompt(pc.Request, pc.existingNodeIDs()))
	if err != nil {
		return stepFail[*IntentDescriptor](err, nil)
	}
	usage := &resp.Usage

	payload, err := parseJSON[intentPayload](resp.Content)
	if err != nil {
		return stepFail[*IntentDescriptor](err, usage)
	}

	if payload.Goal == nil || *payload.Goal == "" {
		return stepFail[*IntentDescriptor](
			&gserrors.ValidationError{Field: "goal", Message: "missing from intent"}, usage)
	}
	if payload.Triggers == nil {
		return stepFail[*IntentDescriptor](
			&gserrors.ValidationError{Field: "triggers", Message: "missing from intent"}, usage)
	}
	if payload.Actions == nil {
		return stepFail[*IntentDescriptor](
			&gserrors.ValidationError{Field: "actions", Message: "missing from intent"}, usage)
	}

	intent := &IntentDescriptor{
		Goal:               *payload.Goal,
		Triggers:           *payload.Triggers,
		Actions:            *payload.Actions,
		Transforms:         payload.Transforms,
		CustomRequirements: s.filterCoveredRequirements(payload.CustomRequirements),
		IsModification:     payload.IsModification,
		ExistingNodes:      pc.existingNodeIDs(),
	}
	if intent.Transforms == nil {
		intent.Transforms = []string{}
	}

	return stepOK(intent, usage)
}

// filterCoveredRequirements removes requirements the library already
// covers, logging each removal.
func (s *IntentStage) filterCoveredRequirements(reqs []string) []string {
	kept := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if pattern, covered := coveredByLibrary(req); covered {
			if s.Logger != nil {
				s.Logger.Info("dropping custom requirement covered by library",
					slog.String("requirement", req),
					slog.String("matched_pattern", pattern),
				)
			}
			continue
		}
		kept = append(kept, req)
	}
	return kept
}

// coveredByLibrary reports whether the requirement text matches a known
// already-covered pattern.
func coveredByLibrary(req string) (string, bool) {
	lower := strings.ToLower(req)
	for _, p := range libraryCoveredPatterns {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}
