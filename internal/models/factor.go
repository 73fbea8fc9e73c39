package models

// Factor is a named sub-score on the conventional 0-10 scale.
type Factor struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Summary is the id/name pair listed in metadata responses.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FactorValues returns the values of factors in order.
func FactorValues(factors []Factor) []float64 {
	out := make([]float64, len(factors))
	for i, f := range factors {
		out[i] = f.Value
	}
	return out
}
