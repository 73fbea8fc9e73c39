package scoring

import (
	"fmt"
	"strings"

	"export-friction/internal/models"
)

// TipVariant identifies which rule produced a tip.
type TipVariant string

const (
	TipCriticalStress     TipVariant = "critical_stress"
	TipHighRisk           TipVariant = "high_risk"
	TipMitigationRequired TipVariant = "mitigation_required"
	TipStrategicGo        TipVariant = "strategic_go"
)

// CriticalScenario is the scenario multiplier at which the stress tip
// overrides the color band.
const CriticalScenario = 1.7

type tipInput struct {
	product  *models.Product
	country  *models.Country
	color    Color
	scenario float64
	dominant Dominance
}

type tipRule struct {
	variant TipVariant
	when    func(in tipInput) bool
	render  func(in tipInput) string
}

// tipRules is evaluated in order; the first matching rule wins and the last
// rule always matches.
var tipRules = []tipRule{
	{
		variant: TipCriticalStress,
		when:    func(in tipInput) bool { return in.scenario >= CriticalScenario },
		render: func(in tipInput) string {
			return fmt.Sprintf("Critical stress: %s shipments face a severe capacity shock. "+
				"Pre-book freight, secure bonded warehouse space and hold buffer inventory before committing volume.",
				in.product.Name)
		},
	},
	{
		variant: TipHighRisk,
		when:    func(in tipInput) bool { return in.color == Red },
		render: func(in tipInput) string {
			return joinSentences(
				"High risk:",
				in.product.BaseTip,
				in.country.BaseTip,
				fmt.Sprintf("Consider a local partner in %s to absorb market-entry friction, and enter through a staged pilot.", in.country.Name),
				emphasis(in.dominant),
			)
		},
	},
	{
		variant: TipMitigationRequired,
		when:    func(in tipInput) bool { return in.color == Yellow },
		render: func(in tipInput) string {
			return joinSentences(
				"Mitigation required:",
				in.product.BaseTip,
				"Sequence mitigations and agree clear SLAs before scaling.",
				emphasis(in.dominant),
			)
		},
	},
	{
		variant: TipStrategicGo,
		when:    func(tipInput) bool { return true },
		render: func(in tipInput) string {
			strength := "the regional strength of " + in.product.Name
			if in.product.Origin != "" {
				strength = fmt.Sprintf("the %s provenance of %s", in.product.Origin, in.product.Name)
			}
			return fmt.Sprintf("Strategic go: lead with %s and move quickly into %s while locking in compliance basics.",
				strength, in.country.Name)
		},
	},
}

func emphasis(d Dominance) string {
	if d == Operational {
		return "Execution risk dominates: prioritise cold-chain reliability and freight booking visibility."
	}
	return "Market risk dominates: invest early in customs brokerage and plan relationship-building touchpoints."
}

func buildTip(in tipInput) (string, TipVariant) {
	for _, rule := range tipRules {
		if rule.when(in) {
			return rule.render(in), rule.variant
		}
	}
	// unreachable: the last rule matches everything
	return "", ""
}

func joinSentences(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
