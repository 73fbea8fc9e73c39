package catalog

// Document is the on-disk and on-wire form of the reference tables.
type Document struct {
	Version     string    `json:"version"`
	LastUpdated string    `json:"lastUpdated,omitempty"`
	Products    []Product `json:"products"`
	Countries   []Country `json:"countries"`
}

// Factor is one named 0-10 sub-score.
type Factor struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type Product struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Origin             string   `json:"origin,omitempty"`
	OperationalFactors []Factor `json:"operational_factors"`
	BaseTip            string   `json:"base_tip"`
}

type Country struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	RelationalFactors []Factor `json:"relational_factors"`
	BaseConfidence    float64  `json:"base_confidence"`
	BaseTip           string   `json:"base_tip"`
}

// JSONSchema describes a valid Document. Uniqueness of ids is checked by the
// reference store, not here.
const JSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["products", "countries"],
  "definitions": {
    "factor": {
      "type": "object",
      "required": ["name", "value"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "value": {"type": "number", "minimum": 0}
      }
    },
    "factors": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/definitions/factor"}
    }
  },
  "properties": {
    "version": {"type": "string"},
    "lastUpdated": {"type": "string"},
    "products": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "operational_factors", "base_tip"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "origin": {"type": "string"},
          "operational_factors": {"$ref": "#/definitions/factors"},
          "base_tip": {"type": "string"}
        }
      }
    },
    "countries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "relational_factors", "base_confidence", "base_tip"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "relational_factors": {"$ref": "#/definitions/factors"},
          "base_confidence": {"type": "number", "minimum": 0, "maximum": 100},
          "base_tip": {"type": "string"}
        }
      }
    }
  }
}`
