package proto

import (
	"encoding/json"
	"fmt"
)

// ExtraData holds plugin-owned values keyed by plugin namespace.
type ExtraData map[string]json.RawMessage

// Has reports whether the namespace holds a value.
func (d ExtraData) Has(ns string) bool {
	_, ok := d[ns]
	return ok
}

// Get decodes the namespace value into v. It reports false when the
// namespace is empty.
func (d ExtraData) Get(ns string, v any) (bool, error) {
	raw, ok := d[ns]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("extra data %q: %w", ns, err)
	}
	return true, nil
}

// Set encodes v into the namespace, replacing any previous value.
func (d ExtraData) Set(ns string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("extra data %q: %w", ns, err)
	}
	d[ns] = raw
	return nil
}

// Encode returns the JSON encoding of d.
func (d ExtraData) Encode() (string, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return string(b), nil
}

// DecodeExtraData parses an encoded ExtraData. An empty string decodes to
// an empty map.
func DecodeExtraData(s string) (ExtraData, error) {
	d := ExtraData{}
	if s == "" {
		return d, nil
	}
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("extra data: %w", err)
	}
	return d, nil
}
