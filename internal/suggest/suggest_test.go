package suggest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/CausalDeck/Cockpit/internal/models"
)

func orientationFlow() models.QuestioningFlow {
	return models.QuestioningFlow{
		ID:   "cynefin-orientation",
		Name: "Cynefin Orientation",
		Steps: []models.QuestioningStep{
			{ID: "cynefin-1"},
			{ID: "cynefin-4", FollowUpQuestions: []string{"What would a safe-to-fail probe look like here?"}},
		},
	}
}

func TestSynthesizeComplexDomainSuggestsProbing(t *testing.T) {
	answers := []string{
		"this feels complex and emergent",
		"not sure, seems risky",
		"no clear expert owns this",
		"we'd need to experiment",
	}
	flow := orientationFlow()
	got := Synthesize(answers, flow, flow.Steps[len(flow.Steps)-1])

	if len(got) == 0 {
		t.Fatal("Synthesize returned no suggestions")
	}
	found := false
	for _, s := range got {
		if strings.Contains(s, "probe-sense-respond") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected a probe-sense-respond suggestion, got %v", got)
	}
}

func TestSynthesizeNeverEmpty(t *testing.T) {
	flow := models.QuestioningFlow{ID: "causal-exploration"}
	got := Synthesize([]string{"the quick brown fox jumped over the lazy dog twice today"}, flow, models.QuestioningStep{})
	if !reflect.DeepEqual(got, fallbackSuggestions) {
		t.Errorf("expected fallback suggestions, got %v", got)
	}
	if len(got) < 2 {
		t.Errorf("fallback should carry two suggestions, got %d", len(got))
	}
}

func TestSynthesizeGenericHeuristics(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    string
	}{
		{
			name:    "brief answers",
			answers: []string{"ok", "fine", "sure"},
			want:    "answers were brief",
		},
		{
			name:    "limited data",
			answers: []string{"we only have a limited sample from last quarter that matters"},
			want:    "coverage sounds limited",
		},
		{
			name:    "tentative yes",
			answers: []string{"yes, although the evidence is not conclusive at this point in time"},
			want:    "tentative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := models.QuestioningFlow{ID: "unregistered-flow"}
			got := Synthesize(tt.answers, flow, models.QuestioningStep{})
			found := false
			for _, s := range got {
				if strings.Contains(s, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a suggestion containing %q, got %v", tt.want, got)
			}
		})
	}
}

func TestSynthesizeTentativeWholeWordOnly(t *testing.T) {
	flow := models.QuestioningFlow{ID: "unregistered-flow"}
	got := Synthesize([]string{"our eyes are on the treatment group metrics for the whole rollout period"}, flow, models.QuestioningStep{})
	for _, s := range got {
		if strings.Contains(s, "tentative") {
			t.Errorf("substring 'yes' inside a word should not trigger the tentative rule, got %v", got)
		}
	}
}

func TestSynthesizeFollowUpReference(t *testing.T) {
	flow := orientationFlow()
	last := flow.Steps[len(flow.Steps)-1]
	got := Synthesize([]string{"nothing notable to report from either analysis pass over the data"}, flow, last)
	found := false
	for _, s := range got {
		if strings.Contains(s, last.FollowUpQuestions[0]) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a suggestion referencing the follow-up question, got %v", got)
	}
}

func TestSynthesizeDeduplicates(t *testing.T) {
	answers := []string{
		"complex systems everywhere",
		"definitely complex and emergent as well",
	}
	flow := orientationFlow()
	got := Synthesize(answers, flow, models.QuestioningStep{})
	seen := make(map[string]bool)
	for _, s := range got {
		if seen[s] {
			t.Errorf("duplicate suggestion %q", s)
		}
		seen[s] = true
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	answers := []string{"we suspect an unmeasured confounder in the observational logs"}
	flow := models.QuestioningFlow{ID: "causal-exploration"}
	first := Synthesize(answers, flow, models.QuestioningStep{})
	for i := 0; i < 5; i++ {
		if got := Synthesize(answers, flow, models.QuestioningStep{}); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed: %v vs %v", i, got, first)
		}
	}
	if len(first) < 2 {
		t.Errorf("expected confounding and observational rules to both fire, got %v", first)
	}
}
