package models

// Country is a destination market.
type Country struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	RelationalFactors []Factor `json:"relationalFactors"`
	BaseConfidence    float64  `json:"baseConfidence"`
	BaseTip           string   `json:"baseTip"`
}

func (c *Country) Summary() Summary {
	return Summary{ID: c.ID, Name: c.Name}
}
