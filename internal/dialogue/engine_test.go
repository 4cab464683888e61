package dialogue

import (
	"errors"
	"strings"
	"testing"

	"github.com/CausalDeck/Cockpit/internal/catalog"
	"github.com/CausalDeck/Cockpit/internal/models"
)

func TestStartPicksApplicableFlow(t *testing.T) {
	eng := NewEngine(catalog.New())
	st := models.NewDialogueState()

	eff, err := eng.Start(&st, models.FlowContext{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !st.IsActive {
		t.Error("state should be active after Start")
	}
	if st.ActiveFlowID != catalog.FallbackFlowID {
		t.Errorf("empty context should start the fallback flow, got %s", st.ActiveFlowID)
	}
	if len(eff.Messages) < 2 {
		t.Fatalf("expected intro and first question, got %d messages", len(eff.Messages))
	}
	if !strings.Contains(eff.Messages[1], "Question 1 of") {
		t.Errorf("second message should carry the first question, got %q", eff.Messages[1])
	}
	if !strings.Contains(eff.Messages[1], "["+string(models.PhaseOrientation)+"]") {
		t.Errorf("the question prompt should carry the step's phase label, got %q", eff.Messages[1])
	}
	if eff.Highlights == nil {
		t.Error("starting a flow should always set the highlight list")
	}
}

func TestStartWhileActiveResetsImplicitly(t *testing.T) {
	eng := NewEngine(catalog.New())
	st := models.NewDialogueState()

	if _, err := eng.Start(&st, models.FlowContext{}); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if _, err := eng.Answer(&st, "an answer to the opening question"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	eff, err := eng.Start(&st, models.FlowContext{HasCausal: true, Domain: "marketing"})
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if st.CurrentStepIndex != 0 || len(st.Answers) != 0 {
		t.Errorf("restart should discard progress, got index=%d answers=%d", st.CurrentStepIndex, len(st.Answers))
	}
	if !strings.Contains(eff.Messages[0], "starting over") {
		t.Errorf("restart should announce the abandoned flow, got %q", eff.Messages[0])
	}
}

func TestAnswerWhileIdleRejected(t *testing.T) {
	eng := NewEngine(catalog.New())
	st := models.NewDialogueState()

	_, err := eng.Answer(&st, "unsolicited answer")
	if !errors.Is(err, models.ErrDialogueNotActive) {
		t.Errorf("expected ErrDialogueNotActive, got %v", err)
	}
}

func TestStartFlowUnknownID(t *testing.T) {
	eng := NewEngine(catalog.New())
	st := models.NewDialogueState()

	_, err := eng.StartFlow(&st, "no-such-flow")
	if !errors.Is(err, models.ErrUnknownFlow) {
		t.Errorf("expected ErrUnknownFlow, got %v", err)
	}
	if st.IsActive {
		t.Error("failed start must leave state idle")
	}
}

func TestOrientationFlowFullRun(t *testing.T) {
	eng := NewEngine(catalog.New())
	st := models.NewDialogueState()

	if _, err := eng.StartFlow(&st, catalog.FallbackFlowID); err != nil {
		t.Fatalf("StartFlow failed: %v", err)
	}

	answers := []string{
		"this feels complex and emergent",
		"not sure, seems risky",
		"no clear expert owns this",
		"we'd need to experiment",
	}
	var last Effect
	for i, a := range answers {
		eff, err := eng.Answer(&st, a)
		if err != nil {
			t.Fatalf("Answer %d failed: %v", i+1, err)
		}
		last = eff
	}

	if st.IsActive {
		t.Error("flow should be idle after the final answer")
	}
	if !last.Completed {
		t.Error("final effect should be marked completed")
	}
	if len(st.Suggestions) == 0 {
		t.Fatal("completing a flow must yield suggestions")
	}
	found := false
	for _, s := range st.Suggestions {
		if strings.Contains(s, "probe-sense-respond") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a probe-sense-respond suggestion, got %v", st.Suggestions)
	}
	if len(st.FlowHistory) != len(answers) {
		t.Errorf("flow history should keep all %d answers, got %d", len(answers), len(st.FlowHistory))
	}
	if last.Highlights == nil || len(last.Highlights) != 0 {
		t.Errorf("completion should clear highlights, got %v", last.Highlights)
	}
	summary := last.Messages[len(last.Messages)-1]
	if !strings.Contains(summary, "completes") {
		t.Errorf("last message should be the completion summary, got %q", summary)
	}
}

func TestAnswerAdvancesAndHighlights(t *testing.T) {
	cat := catalog.New()
	eng := NewEngine(cat)
	st := models.NewDialogueState()

	if _, err := eng.StartFlow(&st, catalog.FallbackFlowID); err != nil {
		t.Fatalf("StartFlow failed: %v", err)
	}
	eff, err := eng.Answer(&st, "mostly routine work with occasional surprises")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if st.CurrentStepIndex != 1 {
		t.Errorf("expected step index 1, got %d", st.CurrentStepIndex)
	}
	next := eff.Messages[len(eff.Messages)-1]
	if !strings.Contains(next, "Question 2 of") {
		t.Errorf("expected the second question, got %q", next)
	}

	flow, _ := cat.GetFlow(catalog.FallbackFlowID)
	want := flow.Steps[1].HighlightTargets
	if len(eff.Highlights) != len(want) {
		t.Errorf("highlights should match step 2 targets, got %v want %v", eff.Highlights, want)
	}
}

func TestResetClearsStateAndHighlights(t *testing.T) {
	eng := NewEngine(catalog.New())
	st := models.NewDialogueState()

	if _, err := eng.StartFlow(&st, catalog.FallbackFlowID); err != nil {
		t.Fatalf("StartFlow failed: %v", err)
	}
	if _, err := eng.Answer(&st, "partial progress before stopping"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	eff := eng.Reset(&st)
	if st.IsActive {
		t.Error("Reset should leave the state idle")
	}
	if eff.Highlights == nil || len(eff.Highlights) != 0 {
		t.Errorf("Reset should clear highlights, got %v", eff.Highlights)
	}
	if !strings.Contains(eff.Messages[0], "Stopped") {
		t.Errorf("Reset should acknowledge the abandoned flow, got %q", eff.Messages[0])
	}

	// Resetting again while idle is a harmless no-op.
	eff = eng.Reset(&st)
	if !strings.Contains(eff.Messages[0], "No questioning flow") {
		t.Errorf("idle Reset should say nothing is active, got %q", eff.Messages[0])
	}
}
