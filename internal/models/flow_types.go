// Package models defines flow and step types for the Socratic questioning engine.
package models

// Phase is the small closed label describing where a step sits in a flow.
type Phase string

const (
	// PhaseOrientation steps establish shared context before digging in.
	PhaseOrientation Phase = "orientation"
	// PhaseDiagnosis steps probe the causes behind the analysis result.
	PhaseDiagnosis Phase = "diagnosis"
	// PhaseResolution steps work toward actionable next steps.
	PhaseResolution Phase = "resolution"
)

// IsValidPhase checks if the given phase label is supported.
func IsValidPhase(p Phase) bool {
	switch p {
	case PhaseOrientation, PhaseDiagnosis, PhaseResolution:
		return true
	default:
		return false
	}
}

// HighlightTarget is an opaque reference to a UI region the host dashboard
// should visually emphasize while a step is active.
type HighlightTarget string

// QuestioningStep is one question within a flow. Immutable once loaded.
type QuestioningStep struct {
	ID                 string            `json:"id"`
	Phase              Phase             `json:"phase"`
	Question           string            `json:"question"`
	Hint               string            `json:"hint,omitempty"`
	ConceptExplanation string            `json:"conceptExplanation,omitempty"`
	FollowUpQuestions  []string          `json:"followUpQuestions,omitempty"`
	HighlightTargets   []HighlightTarget `json:"highlightTargets,omitempty"`
}

// FlowApplicability holds the predicate inputs a flow requires before it is
// offered for a given analysis context. Zero-value constraints are unconstrained.
type FlowApplicability struct {
	Domain            string `json:"domain,omitempty"`
	RequiresCausal    bool   `json:"requiresCausal,omitempty"`
	RequiresBayesian  bool   `json:"requiresBayesian,omitempty"`
	RequiresUncertain bool   `json:"requiresUncertain,omitempty"`
}

// QuestioningFlow is an immutable, named, ordered sequence of steps.
// Flows are created once at process start from the static catalog.
type QuestioningFlow struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Steps         []QuestioningStep `json:"steps"`
	Applicability FlowApplicability `json:"applicability"`
}

// FlowContext describes the prior analysis context used to select applicable flows.
type FlowContext struct {
	Domain         string `json:"domain,omitempty"`
	HasCausal      bool   `json:"hasCausal"`
	HasBayesian    bool   `json:"hasBayesian"`
	HasUncertainty bool   `json:"hasUncertainty"`
}
