package catalog

import (
	"encoding/json"
	"os"
)

// LoadDocument reads a Document from path without validating it.
func LoadDocument(path string) (*Document, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var doc Document
	err = json.Unmarshal(data, &doc)
	return &doc, data, err
}

// SaveDocument writes doc as indented JSON.
func SaveDocument(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
