package webhook

import (
	"encoding"
	"errors"
	"strings"
)

// ContentType is the type of content that will be sent in a webhook request.
type ContentType int8

const (
	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON ContentType = iota
	// ContentTypeForm is the form content type.
	ContentTypeForm
	// ContentTypeYAML is the YAML content type.
	ContentTypeYAML
)

var contentTypeStrings = []string{
	ContentTypeJSON: "application/json",
	ContentTypeForm: "application/x-www-form-urlencoded",
	ContentTypeYAML: "application/yaml",
}

// String returns the MIME type of the content type.
func (c ContentType) String() string {
	if c < 0 || int(c) >= len(contentTypeStrings) {
		return ""
	}
	return contentTypeStrings[c]
}

// ErrInvalidContentType is returned when the content type is invalid.
var ErrInvalidContentType = errors.New("invalid content type")

// ParseContentType parses a MIME type, ignoring parameters such as the
// charset. The short names "json", "form" and "yaml" are accepted too.
func ParseContentType(s string) (ContentType, error) {
	mt, _, _ := strings.Cut(s, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	switch mt {
	case "json":
		return ContentTypeJSON, nil
	case "form":
		return ContentTypeForm, nil
	case "yaml", "application/x-yaml":
		return ContentTypeYAML, nil
	}
	for i, v := range contentTypeStrings {
		if v == mt {
			return ContentType(i), nil
		}
	}

	return -1, ErrInvalidContentType
}

var (
	_ encoding.TextMarshaler   = ContentType(0)
	_ encoding.TextUnmarshaler = (*ContentType)(nil)
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ContentType) UnmarshalText(text []byte) error {
	ct, err := ParseContentType(string(text))
	if err != nil {
		return err
	}

	*c = ct
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c ContentType) MarshalText() (text []byte, err error) {
	ct := c.String()
	if ct == "" {
		return nil, ErrInvalidContentType
	}

	return []byte(ct), nil
}
