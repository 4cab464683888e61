package models

import (
	"testing"
	"time"
)

func TestIsValidRole(t *testing.T) {
	valid := []Role{RoleUser, RoleAssistant, RoleSystem}
	for _, r := range valid {
		if !IsValidRole(r) {
			t.Errorf("expected role %q to be valid", r)
		}
	}
	if IsValidRole("moderator") {
		t.Errorf("expected unknown role to be invalid")
	}
}

func TestIsValidCommandType(t *testing.T) {
	valid := []CommandType{
		CommandOpenAnalysis, CommandStartQuestioning, CommandRunQuery,
		CommandShowSnapshot, CommandOpenHistory, CommandShowHelp,
		CommandRunBenchmark, CommandGenerateSummary, CommandStopDialogue,
	}
	for _, ct := range valid {
		if !IsValidCommandType(ct) {
			t.Errorf("expected command type %q to be valid", ct)
		}
	}
	if IsValidCommandType("self-destruct") {
		t.Errorf("expected unknown command type to be invalid")
	}
}

func TestMessageValidate(t *testing.T) {
	cases := []struct {
		name    string
		msg     Message
		wantErr error
	}{
		{"valid", Message{Role: RoleUser, Content: "hello", Timestamp: time.Now()}, nil},
		{"bad role", Message{Role: "robot", Content: "hello"}, ErrInvalidRole},
		{"empty content", Message{Role: RoleAssistant}, ErrEmptyContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if err != tc.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSnapshotHasUncertainty(t *testing.T) {
	var nilSnap *AnalysisSnapshot
	if nilSnap.HasUncertainty() {
		t.Errorf("nil snapshot should report no uncertainty")
	}

	lowEntropy := &AnalysisSnapshot{Entropy: 0.1}
	if lowEntropy.HasUncertainty() {
		t.Errorf("low entropy snapshot should report no uncertainty")
	}

	highEntropy := &AnalysisSnapshot{Entropy: 0.9}
	if !highEntropy.HasUncertainty() {
		t.Errorf("high entropy snapshot should report uncertainty")
	}

	wideInterval := &AnalysisSnapshot{
		Entropy:  0.1,
		Bayesian: &BayesianResult{CredibleLow: 0.2, CredibleHigh: 0.8},
	}
	if !wideInterval.HasUncertainty() {
		t.Errorf("wide credible interval should report uncertainty")
	}
}

func TestSnapshotFlowContext(t *testing.T) {
	var nilSnap *AnalysisSnapshot
	ctx := nilSnap.FlowContext()
	if ctx.HasCausal || ctx.HasBayesian || ctx.HasUncertainty || ctx.Domain != "" {
		t.Errorf("nil snapshot should yield empty context, got %+v", ctx)
	}

	snap := &AnalysisSnapshot{
		Domain:  "supply-chain",
		Entropy: 0.7,
		Causal:  &CausalResult{Effect: 0.4},
	}
	ctx = snap.FlowContext()
	if ctx.Domain != "supply-chain" {
		t.Errorf("expected domain carried over, got %q", ctx.Domain)
	}
	if !ctx.HasCausal {
		t.Errorf("expected HasCausal for snapshot with causal result")
	}
	if ctx.HasBayesian {
		t.Errorf("did not expect HasBayesian without bayesian result")
	}
	if !ctx.HasUncertainty {
		t.Errorf("expected HasUncertainty for entropy 0.7")
	}
}

func TestDialogueStateRemaining(t *testing.T) {
	s := NewDialogueState()
	if s.Remaining() != 0 {
		t.Errorf("inactive state should have 0 remaining, got %d", s.Remaining())
	}
	s = DialogueState{IsActive: true, CurrentStepIndex: 1, TotalSteps: 4}
	if s.Remaining() != 3 {
		t.Errorf("expected 3 remaining, got %d", s.Remaining())
	}
}

func TestAPIResponseBuilder(t *testing.T) {
	resp := NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage("done").
		WithResult([]string{"a"}).
		Build()
	if resp.Status != string(APIStatusOK) {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Message != "done" {
		t.Errorf("expected message 'done', got %q", resp.Message)
	}

	errResp := Error("boom")
	if errResp.Status != string(APIStatusError) || errResp.Message != "boom" {
		t.Errorf("unexpected error response: %+v", errResp)
	}
}
