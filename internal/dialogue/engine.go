// Package dialogue implements the multi-step questioning state machine.
//
// The engine is a pure transition system over models.DialogueState: every
// method takes the current state, mutates it to the next state, and returns
// an Effect describing what the surrounding session should do (messages to
// emit, panels to highlight). The engine itself performs no I/O.
package dialogue

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/CausalDeck/Cockpit/internal/models"
	"github.com/CausalDeck/Cockpit/internal/suggest"
)

// conceptExcerptLength bounds the feedback excerpt taken from a step's
// concept explanation.
const conceptExcerptLength = 220

// FlowSource is the catalog surface the engine needs. Implemented by
// catalog.Catalog.
type FlowSource interface {
	GetFlow(id string) (models.QuestioningFlow, bool)
	ApplicableFlows(ctx models.FlowContext) []models.QuestioningFlow
}

// Effect is the observable outcome of a state transition. Messages are
// assistant-role texts to append to the transcript in order. Highlights is
// nil when the panel highlight set should be left alone; a non-nil (possibly
// empty) slice replaces the current set, so an empty slice clears it.
type Effect struct {
	Messages   []string
	Highlights []models.HighlightTarget
	Completed  bool
}

// Engine drives questioning flows against a flow catalog.
type Engine struct {
	flows FlowSource
}

// NewEngine creates a dialogue engine backed by the given flow source.
func NewEngine(flows FlowSource) *Engine {
	return &Engine{flows: flows}
}

// Start begins the most applicable flow for the given analysis context. If a
// flow is already active it is implicitly reset first; the new flow replaces
// it without error.
func (e *Engine) Start(st *models.DialogueState, fc models.FlowContext) (Effect, error) {
	flows := e.flows.ApplicableFlows(fc)
	if len(flows) == 0 {
		// The catalog guarantees a fallback; an empty result means a
		// broken flow source.
		slog.Error("Engine.Start: flow source returned no applicable flows", "context", fc)
		return Effect{}, models.ErrUnknownFlow
	}
	return e.startFlow(st, flows[0])
}

// StartFlow begins the named flow regardless of the analysis context.
func (e *Engine) StartFlow(st *models.DialogueState, flowID string) (Effect, error) {
	flow, ok := e.flows.GetFlow(flowID)
	if !ok {
		slog.Warn("Engine.StartFlow: unknown flow requested", "flowID", flowID)
		return Effect{}, fmt.Errorf("starting flow %s: %w", flowID, models.ErrUnknownFlow)
	}
	return e.startFlow(st, flow)
}

func (e *Engine) startFlow(st *models.DialogueState, flow models.QuestioningFlow) (Effect, error) {
	if len(flow.Steps) == 0 {
		return Effect{}, fmt.Errorf("flow %s has no steps: %w", flow.ID, models.ErrUnknownFlow)
	}

	var eff Effect
	if st.IsActive {
		slog.Debug("Engine.startFlow: resetting active flow before start", "previousFlowID", st.ActiveFlowID, "newFlowID", flow.ID)
		eff.Messages = append(eff.Messages, fmt.Sprintf("Abandoning %s and starting over.", st.ActiveFlowID))
	}

	*st = models.NewDialogueState()
	st.IsActive = true
	st.ActiveFlowID = flow.ID
	st.TotalSteps = len(flow.Steps)

	first := flow.Steps[0]
	eff.Messages = append(eff.Messages,
		fmt.Sprintf("Starting %s: %s (%d steps). Answer each question in your own words; send /stop to bail out.",
			flow.Name, flow.Description, len(flow.Steps)),
		questionText(first, 1, len(flow.Steps)),
	)
	eff.Highlights = highlightsOf(first)

	slog.Info("Engine.startFlow: flow started", "flowID", flow.ID, "steps", len(flow.Steps))
	return eff, nil
}

// Answer records a free-text answer for the current step and advances the
// flow. Answering while idle is rejected with ErrDialogueNotActive.
func (e *Engine) Answer(st *models.DialogueState, text string) (Effect, error) {
	if !st.IsActive {
		slog.Debug("Engine.Answer: rejected, no active flow")
		return Effect{}, models.ErrDialogueNotActive
	}
	flowID := st.ActiveFlowID
	flow, ok := e.flows.GetFlow(flowID)
	if !ok {
		// The active flow vanished from the catalog; recover by resetting.
		slog.Error("Engine.Answer: active flow missing from catalog", "flowID", flowID)
		*st = models.NewDialogueState()
		return Effect{}, fmt.Errorf("answering step of flow %s: %w", flowID, models.ErrUnknownFlow)
	}

	step := flow.Steps[st.CurrentStepIndex]
	st.Answers = append(st.Answers, text)
	st.FlowHistory = append(st.FlowHistory, models.StepAnswer{StepID: step.ID, Answer: text})
	st.CurrentStepIndex++

	var eff Effect
	if fb := feedbackFor(step); fb != "" {
		eff.Messages = append(eff.Messages, fb)
	}

	if st.CurrentStepIndex >= st.TotalSteps {
		return e.complete(st, flow, step, eff)
	}

	next := flow.Steps[st.CurrentStepIndex]
	eff.Messages = append(eff.Messages, questionText(next, st.CurrentStepIndex+1, st.TotalSteps))
	eff.Highlights = highlightsOf(next)

	slog.Debug("Engine.Answer: advanced", "flowID", flow.ID, "stepIndex", st.CurrentStepIndex, "totalSteps", st.TotalSteps)
	return eff, nil
}

// complete closes out the flow: synthesizes suggestions from the collected
// answers, emits the summary, and returns the state to idle while preserving
// the answer history and suggestions for later inspection.
func (e *Engine) complete(st *models.DialogueState, flow models.QuestioningFlow, lastStep models.QuestioningStep, eff Effect) (Effect, error) {
	st.Suggestions = suggest.Synthesize(st.Answers, flow, lastStep)
	st.IsActive = false
	st.ActiveFlowID = ""
	st.CurrentStepIndex = 0
	st.TotalSteps = 0

	var b strings.Builder
	fmt.Fprintf(&b, "That completes %s. Based on your answers:\n", flow.Name)
	for _, s := range st.Suggestions {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	if lastStep.ConceptExplanation != "" {
		fmt.Fprintf(&b, "\n%s", excerpt(lastStep.ConceptExplanation, conceptExcerptLength))
	}
	eff.Messages = append(eff.Messages, b.String())
	eff.Highlights = []models.HighlightTarget{}
	eff.Completed = true

	slog.Info("Engine.complete: flow finished", "flowID", flow.ID, "answers", len(st.Answers), "suggestions", len(st.Suggestions))
	return eff, nil
}

// Reset abandons any active flow and clears highlights. Resetting an idle
// state is a no-op that still clears highlights.
func (e *Engine) Reset(st *models.DialogueState) Effect {
	var eff Effect
	if st.IsActive {
		slog.Info("Engine.Reset: abandoning active flow", "flowID", st.ActiveFlowID, "answered", len(st.Answers))
		eff.Messages = append(eff.Messages, fmt.Sprintf("Stopped %s after %d of %d steps. Your answers so far are kept in the transcript.",
			st.ActiveFlowID, st.CurrentStepIndex, st.TotalSteps))
	} else {
		eff.Messages = append(eff.Messages, "No questioning flow is active.")
	}
	*st = models.NewDialogueState()
	eff.Highlights = []models.HighlightTarget{}
	return eff
}

// questionText formats one step as the assistant's prompt, carrying the
// step's phase label and the hint when present.
func questionText(step models.QuestioningStep, number, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Question %d of %d: %s", step.Phase, number, total, step.Question)
	if step.Hint != "" {
		fmt.Fprintf(&b, "\nHint: %s", step.Hint)
	}
	return b.String()
}

// feedbackFor returns a short acknowledgment drawing on the answered step's
// concept explanation, or "" when the step has none.
func feedbackFor(step models.QuestioningStep) string {
	if step.ConceptExplanation == "" {
		return ""
	}
	return "Noted. " + excerpt(step.ConceptExplanation, conceptExcerptLength)
}

// highlightsOf returns the step's highlight targets, normalizing nil to an
// empty slice so the caller's panel set is always replaced, never left stale.
func highlightsOf(step models.QuestioningStep) []models.HighlightTarget {
	if step.HighlightTargets == nil {
		return []models.HighlightTarget{}
	}
	return append([]models.HighlightTarget(nil), step.HighlightTargets...)
}

// excerpt truncates s at a rune boundary, appending an ellipsis when cut.
func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
