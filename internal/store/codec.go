package store

import "encoding/json"

// Encode converts a domain value to its document form via its JSON tags.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Decode fills a domain value from a document.
func Decode[T any](doc Document, out *T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// DecodeAll decodes a snapshot into a typed slice, preserving order.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, len(docs))
	for i, doc := range docs {
		if err := Decode(doc, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
