package document

import (
	"encoding/json"
	"fmt"
)

// Clone returns a deep copy of d. Point identities are not preserved.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &out, nil
}

// Parse decodes and normalizes a document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc.Normalize(), nil
}
