package models

// Product is an exportable good.
type Product struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Origin             string   `json:"origin,omitempty"`
	OperationalFactors []Factor `json:"operationalFactors"`
	BaseTip            string   `json:"baseTip"`
}

func (p *Product) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name}
}
