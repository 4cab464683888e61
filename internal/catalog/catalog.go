// Package catalog provides the static registry of Socratic questioning flows.
//
// Flows are defined once at process start and never mutated, so the catalog is
// safe for concurrent reads without locking. Selection ranks flows by how many
// of their applicability constraints the analysis context satisfies; the
// generic orientation flow carries no constraints and is always offered last
// as the fallback.
package catalog

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// FallbackFlowID is the id of the generic orientation flow that applies to any
// context, including the empty one.
const FallbackFlowID = "cynefin-orientation"

// Catalog holds the fixed set of questioning flows in stable order.
type Catalog struct {
	flows []models.QuestioningFlow
}

// New creates a catalog populated with the built-in flow definitions.
func New() *Catalog {
	c := &Catalog{flows: builtinFlows()}
	slog.Debug("catalog.New: catalog initialized", "flowCount", len(c.flows))
	return c
}

// ListFlows returns the full static registry in stable catalog order.
// The returned slice is a copy; flow definitions themselves are shared and
// must not be mutated.
func (c *Catalog) ListFlows() []models.QuestioningFlow {
	out := make([]models.QuestioningFlow, len(c.flows))
	copy(out, c.flows)
	return out
}

// GetFlow looks up a flow by id.
func (c *Catalog) GetFlow(id string) (models.QuestioningFlow, bool) {
	for _, f := range c.flows {
		if f.ID == id {
			return f, true
		}
	}
	return models.QuestioningFlow{}, false
}

// ApplicableFlows returns the flows whose applicability predicate is satisfied
// by ctx, most specific match first. The fallback flow is always included and
// always last. Never returns an empty slice.
func (c *Catalog) ApplicableFlows(ctx models.FlowContext) []models.QuestioningFlow {
	type ranked struct {
		flow        models.QuestioningFlow
		specificity int
		order       int
	}

	var candidates []ranked
	var fallback *models.QuestioningFlow
	for i := range c.flows {
		f := c.flows[i]
		if f.ID == FallbackFlowID {
			fallback = &c.flows[i]
			continue
		}
		spec, ok := matchApplicability(f.Applicability, ctx)
		if !ok {
			continue
		}
		candidates = append(candidates, ranked{flow: f, specificity: spec, order: i})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].specificity != candidates[b].specificity {
			return candidates[a].specificity > candidates[b].specificity
		}
		return candidates[a].order < candidates[b].order
	})

	out := make([]models.QuestioningFlow, 0, len(candidates)+1)
	for _, r := range candidates {
		out = append(out, r.flow)
	}
	if fallback != nil {
		out = append(out, *fallback)
	}

	slog.Debug("Catalog.ApplicableFlows: ranked candidates",
		"contextDomain", ctx.Domain,
		"hasCausal", ctx.HasCausal,
		"hasBayesian", ctx.HasBayesian,
		"hasUncertainty", ctx.HasUncertainty,
		"count", len(out))
	return out
}

// matchApplicability reports whether ctx satisfies every set constraint of a,
// and how many constraints were satisfied (the specificity score).
func matchApplicability(a models.FlowApplicability, ctx models.FlowContext) (int, bool) {
	specificity := 0
	if a.RequiresCausal {
		if !ctx.HasCausal {
			return 0, false
		}
		specificity++
	}
	if a.RequiresBayesian {
		if !ctx.HasBayesian {
			return 0, false
		}
		specificity++
	}
	if a.RequiresUncertain {
		if !ctx.HasUncertainty {
			return 0, false
		}
		specificity++
	}
	if a.Domain != "" {
		if !strings.EqualFold(a.Domain, ctx.Domain) {
			return 0, false
		}
		specificity++
	}
	return specificity, true
}
