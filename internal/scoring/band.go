package scoring

// Color is the three-tier risk band.
type Color string

const (
	Green  Color = "Green"
	Yellow Color = "Yellow"
	Red    Color = "Red"
)

// Band thresholds on the friction index. Red needs clearly elevated risk, so
// the bands are not symmetric around 5.
const (
	YellowThreshold = 4.5
	RedThreshold    = 7.5
)

// ColorFor bands a friction index.
func ColorFor(frictionIndex float64) Color {
	switch {
	case frictionIndex < YellowThreshold:
		return Green
	case frictionIndex < RedThreshold:
		return Yellow
	default:
		return Red
	}
}

// Dominance names the larger friction component.
type Dominance string

const (
	Operational Dominance = "operational"
	Relational  Dominance = "relational"
)

// dominantFactor returns Relational on ties.
func dominantFactor(operational, relational float64) Dominance {
	if operational > relational {
		return Operational
	}
	return Relational
}
