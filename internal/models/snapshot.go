// Package models defines analysis snapshot types shared with the dashboard backend.
package models

// CausalResult captures the causal-analysis portion of a backend result.
type CausalResult struct {
	Method        string   `json:"method,omitempty"`
	Effect        float64  `json:"effect"`
	Treatment     string   `json:"treatment,omitempty"`
	Outcome       string   `json:"outcome,omitempty"`
	Confounders   []string `json:"confounders,omitempty"`
	RefuterPassed bool     `json:"refuterPassed"`
}

// BayesianResult captures the Bayesian-analysis portion of a backend result.
type BayesianResult struct {
	Model           string             `json:"model,omitempty"`
	PosteriorMean   float64            `json:"posteriorMean"`
	CredibleLow     float64            `json:"credibleLow"`
	CredibleHigh    float64            `json:"credibleHigh"`
	NodeProbability map[string]float64 `json:"nodeProbability,omitempty"`
}

// AnalysisSnapshot is the latest classification result held for a session.
// It feeds both flow applicability scoring and the /snapshot summary.
type AnalysisSnapshot struct {
	Domain     string          `json:"domain"`
	Confidence float64         `json:"confidence"`
	Entropy    float64         `json:"entropy"`
	Causal     *CausalResult   `json:"causal,omitempty"`
	Bayesian   *BayesianResult `json:"bayesian,omitempty"`
	Verdict    string          `json:"verdict,omitempty"`
}

// HasUncertainty reports whether the snapshot carries enough entropy or a wide
// enough credible interval to warrant uncertainty-focused questioning.
func (s *AnalysisSnapshot) HasUncertainty() bool {
	if s == nil {
		return false
	}
	if s.Entropy > 0.5 {
		return true
	}
	if s.Bayesian != nil && s.Bayesian.CredibleHigh-s.Bayesian.CredibleLow > 0.3 {
		return true
	}
	return false
}

// FlowContext derives the applicability context from the snapshot.
// A nil snapshot yields the empty context.
func (s *AnalysisSnapshot) FlowContext() FlowContext {
	if s == nil {
		return FlowContext{}
	}
	return FlowContext{
		Domain:         s.Domain,
		HasCausal:      s.Causal != nil,
		HasBayesian:    s.Bayesian != nil,
		HasUncertainty: s.HasUncertainty(),
	}
}
