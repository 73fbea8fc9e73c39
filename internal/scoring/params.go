package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "export-friction/internal/common/errors"
)

// Request parameter names, shared by the HTTP query string and job variables.
const (
	ParamWeightOperational  = "weightOperational"
	ParamWeightRelational   = "weightRelational"
	ParamScenarioMultiplier = "scenarioMultiplier"
	ParamTariffAdjustment   = "tariffAdjustment"
)

// Parameters tunes one calculation.
type Parameters struct {
	WeightOperational  float64 `json:"weightOperational"`
	WeightRelational   float64 `json:"weightRelational"`
	ScenarioMultiplier float64 `json:"scenarioMultiplier"`
	TariffAdjustment   float64 `json:"tariffAdjustment"`
}

func DefaultParameters() Parameters {
	return Parameters{
		WeightOperational:  1,
		WeightRelational:   1,
		ScenarioMultiplier: 1,
		TariffAdjustment:   0,
	}
}

// Validate rejects parameters the engine cannot score. Resolve only ever
// produces parameters that fail here on the combined weights.
func (p Parameters) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
		ok   func(float64) bool
		rule string
	}{
		{ParamWeightOperational, p.WeightOperational, nonNegative, "must be a finite number >= 0"},
		{ParamWeightRelational, p.WeightRelational, nonNegative, "must be a finite number >= 0"},
		{ParamScenarioMultiplier, p.ScenarioMultiplier, nonNegative, "must be a finite number >= 0"},
		{ParamTariffAdjustment, p.TariffAdjustment, aboveMinusOne, "must be a finite number > -1"},
	} {
		if !c.ok(c.v) {
			return apperrors.NewInvalidParameterError(c.name, fmt.Sprintf("%v %s", c.v, c.rule))
		}
	}

	if p.WeightOperational == 0 && p.WeightRelational == 0 {
		return apperrors.NewInvalidParameterError("weights", "weightOperational and weightRelational cannot both be 0")
	}
	if math.IsInf(p.WeightOperational+p.WeightRelational, 0) {
		return apperrors.NewInvalidParameterError("weights", "weightOperational + weightRelational overflows")
	}
	return nil
}

// RawParameters holds parameter values exactly as received. A missing or
// empty value means "use the default".
type RawParameters map[string]string

// Adjustment records a supplied value that was replaced by its default.
type Adjustment struct {
	Parameter string  `json:"parameter"`
	Supplied  string  `json:"supplied"`
	Applied   float64 `json:"applied"`
	Reason    string  `json:"reason"`
}

type paramSpec struct {
	name string
	def  float64
	ok   func(float64) bool
	rule string
	dst  func(*Parameters) *float64
}

var paramSpecs = []paramSpec{
	{ParamWeightOperational, 1, nonNegative, "out of range (< 0)", func(p *Parameters) *float64 { return &p.WeightOperational }},
	{ParamWeightRelational, 1, nonNegative, "out of range (< 0)", func(p *Parameters) *float64 { return &p.WeightRelational }},
	{ParamScenarioMultiplier, 1, nonNegative, "out of range (< 0)", func(p *Parameters) *float64 { return &p.ScenarioMultiplier }},
	{ParamTariffAdjustment, 0, aboveMinusOne, "out of range (<= -1)", func(p *Parameters) *float64 { return &p.TariffAdjustment }},
}

// Resolve turns raw values into Parameters. Unparsable, non-finite or
// out-of-range values fall back to their default and are reported as
// adjustments; an explicit 0 is kept. Weights that are both zero, or whose
// sum overflows, are returned as an error.
func Resolve(raw RawParameters) (Parameters, []Adjustment, error) {
	params := DefaultParameters()
	var adjustments []Adjustment

	for _, spec := range paramSpecs {
		supplied := strings.TrimSpace(raw[spec.name])
		if supplied == "" {
			continue
		}

		v, err := strconv.ParseFloat(supplied, 64)
		reason := ""
		switch {
		case err != nil:
			reason = "not a number"
		case math.IsNaN(v) || math.IsInf(v, 0):
			reason = "not finite"
		case !spec.ok(v):
			reason = spec.rule
		}

		if reason != "" {
			adjustments = append(adjustments, Adjustment{
				Parameter: spec.name,
				Supplied:  supplied,
				Applied:   spec.def,
				Reason:    reason,
			})
			continue
		}
		*spec.dst(&params) = v
	}

	if err := params.Validate(); err != nil {
		return Parameters{}, adjustments, err
	}
	return params, adjustments, nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func aboveMinusOne(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > -1
}
