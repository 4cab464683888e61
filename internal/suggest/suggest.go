// Package suggest derives structured recommendations from free-text answers
// collected during a questioning flow.
//
// Synthesis is a pure function of its inputs: an ordered list of
// keyword-containment rules per flow, a flow-agnostic generic pass, and an
// optional follow-up reference, deduplicated in first-seen order. No
// randomness is involved so outputs are fully deterministic for testing.
package suggest

import (
	"fmt"
	"strings"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// Thresholds for the generic heuristics pass.
const (
	// shortAnswerThreshold is the combined answer length below which the
	// answers are considered too brief to carry much signal.
	shortAnswerThreshold = 40
)

// Fallback suggestions returned when no rule fires. The output of Synthesize
// must never be empty.
var fallbackSuggestions = []string{
	"Your analysis setup looks reasonable; no immediate gaps stood out from your answers.",
	"Consider running a sensitivity analysis to confirm the robustness of your conclusions.",
}

// rule is one keyword-containment heuristic. Any keyword match in any answer
// contributes the suggestion at most once.
type rule struct {
	keywords   []string
	suggestion string
}

// flowRules maps flow ids to their ordered rule lists. Rules are independent;
// multiple rules can fire for the same set of answers.
var flowRules = map[string][]rule{
	catalogOrientationFlowID: {
		{
			keywords:   []string{"complex", "emergent", "unpredictable"},
			suggestion: "Your answers point to a complex domain: favor probe-sense-respond experiments over large up-front plans.",
		},
		{
			keywords:   []string{"obvious", "clear", "simple", "routine"},
			suggestion: "This looks like an ordered domain; documented best practice and the causal estimate should transfer well.",
		},
		{
			keywords:   []string{"expert", "specialist", "playbook"},
			suggestion: "Expertise came up in your answers; verify whether a recognized expert's judgment agrees with the model output.",
		},
		{
			keywords:   []string{"crisis", "urgent", "chaos"},
			suggestion: "Signals of a chaotic situation: act to stabilize first, and defer fine-grained analysis until the situation settles.",
		},
		{
			keywords:   []string{"experiment", "probe", "pilot", "trial"},
			suggestion: "You already lean toward experimentation; design the probe to be safe-to-fail with an explicit early-warning signal.",
		},
	},
	"causal-exploration": {
		{
			keywords:   []string{"confound", "unmeasured", "omitted", "hidden"},
			suggestion: "You suspect unmeasured confounding; add the candidate variables to the graph and re-estimate the effect.",
		},
		{
			keywords:   []string{"observational", "survey", "logs"},
			suggestion: "With observational data, run the refutation suite before acting on the effect estimate.",
		},
		{
			keywords:   []string{"random", "randomized", "a/b"},
			suggestion: "Randomized assignment strengthens identification; the main remaining risks are compliance and measurement.",
		},
		{
			keywords:   []string{"surprising", "unexpected", "opposite", "wrong sign"},
			suggestion: "The effect surprised you; treat that as a prompt to check the adjustment set rather than to update your beliefs.",
		},
	},
	"bayesian-uncertainty": {
		{
			keywords:   []string{"default", "flat", "uninformative"},
			suggestion: "Default priors are doing the talking; elicit informative priors from a domain expert and compare posteriors.",
		},
		{
			keywords:   []string{"measurement", "observation", "collect", "more data"},
			suggestion: "Targeted data collection came up; prioritize the measurement you named as most informative for narrowing the interval.",
		},
		{
			keywords:   []string{"threshold", "decide", "act", "comfortable"},
			suggestion: "Make the decision threshold explicit and check whether both ends of the credible interval clear it.",
		},
	},
	"assumption-audit": {
		{
			keywords:   []string{"disagree", "conflict", "different", "diverge"},
			suggestion: "The two analyses diverge; audit the assumption they do not share before trusting either result.",
		},
		{
			keywords:   []string{"agree", "same direction", "consistent"},
			suggestion: "Agreement between the models is only corroboration if their assumptions are independent; check the shared ones first.",
		},
		{
			keywords:   []string{"nothing", "cannot think", "can't think", "unfalsifiable"},
			suggestion: "If no evidence could change your mind, the result is not being treated as falsifiable; define a discard criterion.",
		},
	},
}

// catalogOrientationFlowID mirrors catalog.FallbackFlowID without importing
// the catalog package, keeping this package free of registry dependencies.
const catalogOrientationFlowID = "cynefin-orientation"

// Synthesize produces a deduplicated, ordered list of suggestions from the
// accumulated answers. The result is never empty: when no rule fires, a fixed
// two-item fallback is returned.
func Synthesize(answers []string, flow models.QuestioningFlow, lastStep models.QuestioningStep) []string {
	joined := strings.ToLower(strings.Join(answers, " \n "))

	var out []string

	// Pass 1: flow-specific keyword rules in declaration order.
	for _, r := range flowRules[flow.ID] {
		for _, kw := range r.keywords {
			if strings.Contains(joined, kw) {
				out = append(out, r.suggestion)
				break
			}
		}
	}

	// Pass 2: flow-agnostic generic heuristics.
	out = append(out, genericHeuristics(answers, joined)...)

	// Pass 3: surface the first follow-up question of the closing step.
	if len(lastStep.FollowUpQuestions) > 0 {
		out = append(out, fmt.Sprintf("A question worth pursuing next: %s", lastStep.FollowUpQuestions[0]))
	}

	out = dedupe(out)
	if len(out) == 0 {
		return append([]string(nil), fallbackSuggestions...)
	}
	return out
}

// genericHeuristics applies the flow-agnostic rules: answer-length thresholds
// and generic keyword hits.
func genericHeuristics(answers []string, joined string) []string {
	var out []string

	total := 0
	for _, a := range answers {
		total += len(strings.TrimSpace(a))
	}
	if len(answers) > 0 && total < shortAnswerThreshold {
		out = append(out, "Your answers were brief; revisiting the flow after exploring the dashboard panels may surface more.")
	}

	if strings.Contains(joined, "limited") || strings.Contains(joined, "few") {
		out = append(out, "Data coverage sounds limited; consider collecting more observations before leaning on the estimates.")
	}

	if containsWord(joined, "yes") || strings.Contains(joined, "possibly") {
		out = append(out, "Several answers were tentative; a sensitivity analysis can make that uncertainty explicit.")
	}

	return out
}

// containsWord reports whether text contains w as a whole word, avoiding
// substring hits inside longer words (e.g. "yes" in "eyes").
func containsWord(text, w string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == ',' || r == '.' || r == ';' || r == '!' || r == '?'
	}) {
		if f == w {
			return true
		}
	}
	return false
}

// dedupe removes duplicates while preserving first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
