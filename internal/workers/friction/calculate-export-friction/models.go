// internal/workers/friction/calculate-export-friction/models.go
package calculateexportfriction

import (
	"encoding/json"

	"export-friction/internal/scoring"
)

type Input struct {
	ProductID          string     `json:"productId"`
	CountryID          string     `json:"countryId"`
	WeightOperational  paramValue `json:"weightOperational"`
	WeightRelational   paramValue `json:"weightRelational"`
	ScenarioMultiplier paramValue `json:"scenarioMultiplier"`
	TariffAdjustment   paramValue `json:"tariffAdjustment"`
}

func (in *Input) rawParameters() scoring.RawParameters {
	return scoring.RawParameters{
		scoring.ParamWeightOperational:  string(in.WeightOperational),
		scoring.ParamWeightRelational:   string(in.WeightRelational),
		scoring.ParamScenarioMultiplier: string(in.ScenarioMultiplier),
		scoring.ParamTariffAdjustment:   string(in.TariffAdjustment),
	}
}

// paramValue accepts a process variable given as a JSON number or string.
// Anything else is kept verbatim so parameter resolution reports it.
type paramValue string

func (p *paramValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = paramValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*p = paramValue(n.String())
		return nil
	}
	*p = paramValue(b)
	return nil
}

type Output struct {
	OperationalFriction  float64              `json:"operationalFriction"`
	RelationalFriction   float64              `json:"relationalFriction"`
	FrictionIndex        float64              `json:"frictionIndex"`
	Confidence           int                  `json:"confidence"`
	Color                string               `json:"color"`
	Tip                  string               `json:"tip"`
	TipVariant           string               `json:"tipVariant"`
	DominantFactor       string               `json:"dominantFactor"`
	ParameterAdjustments []scoring.Adjustment `json:"parameterAdjustments,omitempty"`
}
