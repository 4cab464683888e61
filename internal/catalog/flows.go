package catalog

import "github.com/CausalDeck/Cockpit/internal/models"

// builtinFlows returns the static flow definitions. Order is significant: it
// is the catalog order used to break specificity ties, and the generic
// orientation flow is kept first for readability even though selection always
// ranks it last.
func builtinFlows() []models.QuestioningFlow {
	return []models.QuestioningFlow{
		{
			ID:          FallbackFlowID,
			Name:        "Cynefin Orientation",
			Description: "Locate your problem in the Cynefin framework before trusting any single analysis.",
			Steps: []models.QuestioningStep{
				{
					ID:       "cynefin-1",
					Phase:    models.PhaseOrientation,
					Question: "How would you describe the relationship between cause and effect in this problem: obvious, discoverable with analysis, or only visible in hindsight?",
					Hint:     "Think about whether an expert could reliably predict outcomes here.",
					ConceptExplanation: "The Cynefin framework distinguishes ordered domains (clear, complicated) from unordered ones (complex, chaotic). " +
						"In complex domains cause and effect can only be understood retrospectively, which changes which analyses you should trust.",
					HighlightTargets: []models.HighlightTarget{"classification-panel"},
				},
				{
					ID:       "cynefin-2",
					Phase:    models.PhaseDiagnosis,
					Question: "If you applied the same intervention twice under similar conditions, how confident are you the outcome would repeat?",
					Hint:     "Low repeatability is a strong signal of a complex domain.",
					ConceptExplanation: "Repeatable interventions suggest an ordered domain where causal estimates generalize. " +
						"Unrepeatable ones suggest emergent behavior that no static model fully captures.",
					HighlightTargets: []models.HighlightTarget{"causal-graph"},
				},
				{
					ID:       "cynefin-3",
					Phase:    models.PhaseDiagnosis,
					Question: "Is there a recognized expert or playbook that reliably handles situations like this one?",
					Hint:     "Complicated domains have experts; complex domains only have patterns.",
					HighlightTargets: []models.HighlightTarget{"history-panel"},
				},
				{
					ID:       "cynefin-4",
					Phase:    models.PhaseResolution,
					Question: "What is the smallest safe-to-fail experiment you could run to learn more before committing?",
					Hint:     "Probe, sense, respond: favor cheap probes over big bets in complex domains.",
					ConceptExplanation: "In complex domains the recommended move is probe-sense-respond: run small experiments, " +
						"amplify what works, and dampen what does not, rather than planning a single correct answer up front.",
					FollowUpQuestions: []string{
						"Who would need to sign off on a safe-to-fail experiment?",
						"How would you detect that a probe is failing early?",
					},
					HighlightTargets: []models.HighlightTarget{"query-panel"},
				},
			},
		},
		{
			ID:          "causal-exploration",
			Name:        "Causal Exploration",
			Description: "Stress-test the causal estimate: confounders, identification, and effect plausibility.",
			Applicability: models.FlowApplicability{
				RequiresCausal: true,
			},
			Steps: []models.QuestioningStep{
				{
					ID:       "causal-1",
					Phase:    models.PhaseOrientation,
					Question: "Which variables outside the model could plausibly influence both the treatment and the outcome?",
					Hint:     "Unmeasured confounders are the most common way causal estimates go wrong.",
					ConceptExplanation: "A confounder is a variable that affects both treatment and outcome. " +
						"If one is missing from the adjustment set, the estimated effect absorbs its influence.",
					HighlightTargets: []models.HighlightTarget{"causal-graph", "confounder-list"},
				},
				{
					ID:       "causal-2",
					Phase:    models.PhaseDiagnosis,
					Question: "Does the direction and magnitude of the estimated effect match what domain knowledge would predict?",
					Hint:     "A surprising sign is worth more scrutiny than a surprising magnitude.",
					HighlightTargets: []models.HighlightTarget{"effect-estimate"},
				},
				{
					ID:       "causal-3",
					Phase:    models.PhaseDiagnosis,
					Question: "How was the data generated: observational collection, natural experiment, or randomized assignment?",
					Hint:     "Identification assumptions differ sharply across these three.",
					ConceptExplanation: "Randomization removes confounding by construction. Observational data requires untestable " +
						"assumptions, so refutation checks carry much more of the burden.",
					HighlightTargets: []models.HighlightTarget{"data-summary"},
				},
				{
					ID:       "causal-4",
					Phase:    models.PhaseResolution,
					Question: "If the effect were actually half the estimate, would your decision change?",
					Hint:     "This is a cheap sensitivity check you can do without re-running anything.",
					FollowUpQuestions: []string{
						"What refutation test would most increase your confidence?",
					},
					HighlightTargets: []models.HighlightTarget{"effect-estimate", "refuter-panel"},
				},
			},
		},
		{
			ID:          "bayesian-uncertainty",
			Name:        "Bayesian Uncertainty Review",
			Description: "Interrogate wide posteriors: priors, evidence strength, and decision thresholds.",
			Applicability: models.FlowApplicability{
				RequiresBayesian:  true,
				RequiresUncertain: true,
			},
			Steps: []models.QuestioningStep{
				{
					ID:       "bayes-1",
					Phase:    models.PhaseOrientation,
					Question: "Where did the priors for this model come from: elicited domain knowledge, previous data, or defaults?",
					Hint:     "Default priors plus little data means the posterior mostly reflects the defaults.",
					ConceptExplanation: "With sparse evidence the posterior stays close to the prior. Knowing the prior's provenance " +
						"tells you whose belief the wide interval actually represents.",
					HighlightTargets: []models.HighlightTarget{"bayesian-network", "prior-panel"},
				},
				{
					ID:       "bayes-2",
					Phase:    models.PhaseDiagnosis,
					Question: "Which single additional observation or measurement would narrow the credible interval the most?",
					Hint:     "Value-of-information thinking: not all data shrinks uncertainty equally.",
					HighlightTargets: []models.HighlightTarget{"posterior-panel"},
				},
				{
					ID:       "bayes-3",
					Phase:    models.PhaseResolution,
					Question: "At what posterior probability would you be comfortable acting, and does the current interval clear it?",
					Hint:     "Separate the statistical question from the decision threshold.",
					ConceptExplanation: "A wide interval is only a problem relative to a decision. If both ends of the interval " +
						"lead to the same action, the uncertainty is decision-irrelevant.",
					FollowUpQuestions: []string{
						"Is there a cheaper reversible action available below your threshold?",
					},
					HighlightTargets: []models.HighlightTarget{"posterior-panel", "decision-panel"},
				},
			},
		},
		{
			ID:          "assumption-audit",
			Name:        "Assumption Audit",
			Description: "Cross-check the causal and Bayesian results against each other and against their shared assumptions.",
			Applicability: models.FlowApplicability{
				RequiresCausal:   true,
				RequiresBayesian: true,
			},
			Steps: []models.QuestioningStep{
				{
					ID:       "audit-1",
					Phase:    models.PhaseOrientation,
					Question: "Do the causal effect estimate and the Bayesian posterior point in the same direction?",
					Hint:     "Agreement is reassuring; disagreement usually means an assumption differs between the two models.",
					HighlightTargets: []models.HighlightTarget{"effect-estimate", "posterior-panel"},
				},
				{
					ID:       "audit-2",
					Phase:    models.PhaseDiagnosis,
					Question: "Which structural assumption is shared by both models, and what happens if it is wrong?",
					Hint:     "Shared assumptions fail together; independent evidence is worth more.",
					ConceptExplanation: "When two analyses share a structural assumption, their agreement is not independent " +
						"corroboration. Auditing the shared assumption first gives the most information.",
					HighlightTargets: []models.HighlightTarget{"causal-graph", "bayesian-network"},
				},
				{
					ID:       "audit-3",
					Phase:    models.PhaseResolution,
					Question: "What single piece of evidence would make you discard one of the two results?",
					Hint:     "If nothing could, the result is not being treated as falsifiable.",
					FollowUpQuestions: []string{
						"Which of the two results would you drop first, and why?",
					},
					HighlightTargets: []models.HighlightTarget{"refuter-panel"},
				},
			},
		},
	}
}
