// Package models defines the live dialogue state for the questioning engine.
package models

// StepAnswer pairs a completed step with the raw answer given for it.
// Entries are append-only and used for post-hoc analysis.
type StepAnswer struct {
	StepID string `json:"stepId"`
	Answer string `json:"answer"`
}

// DialogueState is the live, mutable session object for one questioning run.
//
// Invariants while active: CurrentStepIndex <= TotalSteps and
// len(Answers) == CurrentStepIndex. When CurrentStepIndex reaches TotalSteps
// the state becomes inactive and Suggestions is populated (never empty).
type DialogueState struct {
	IsActive         bool         `json:"isActive"`
	ActiveFlowID     string       `json:"activeFlowId,omitempty"`
	CurrentStepIndex int          `json:"currentStepIndex"`
	TotalSteps       int          `json:"totalSteps"`
	Answers          []string     `json:"answers,omitempty"`
	FlowHistory      []StepAnswer `json:"flowHistory,omitempty"`
	Suggestions      []string     `json:"suggestions,omitempty"`
}

// NewDialogueState returns the initial empty, inactive state.
func NewDialogueState() DialogueState {
	return DialogueState{}
}

// Remaining reports how many steps are left while a flow is active.
func (s DialogueState) Remaining() int {
	if !s.IsActive {
		return 0
	}
	return s.TotalSteps - s.CurrentStepIndex
}
