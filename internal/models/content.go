package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ContentType is the discriminant of Content on the wire.
type ContentType string

// Content variants
const (
	ContentTypeText ContentType = "Text"
	ContentTypeCode ContentType = "Code"
)

// TextContent is plain text.
type TextContent struct {
	Text string `json:"text"`
}

// CodeContent is a code snippet in a named language.
type CodeContent struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Content is a tagged union: exactly one of Text or Code is set.
// Encoded as {"type": "Text"|"Code", "data": {...}}.
type Content struct {
	Text *TextContent
	Code *CodeContent
}

// ErrEmptyContent is returned when neither variant is set.
var ErrEmptyContent = errors.New("content has no variant")

// NewTextContent builds a Text content.
func NewTextContent(text string) Content {
	return Content{Text: &TextContent{Text: text}}
}

// NewCodeContent builds a Code content.
func NewCodeContent(language, code string) Content {
	return Content{Code: &CodeContent{Language: language, Code: code}}
}

// Type returns the variant tag, or "" for an empty content.
func (c Content) Type() ContentType {
	switch {
	case c.Text != nil && c.Code == nil:
		return ContentTypeText
	case c.Code != nil && c.Text == nil:
		return ContentTypeCode
	default:
		return ""
	}
}

// IsZero reports whether no variant is set.
func (c Content) IsZero() bool {
	return c.Text == nil && c.Code == nil
}

// Validate checks that exactly one variant is set.
func (c Content) Validate() error {
	if c.IsZero() {
		return ErrEmptyContent
	}
	if c.Text != nil && c.Code != nil {
		return errors.New("content has both Text and Code variants")
	}
	return nil
}

type contentEnvelope struct {
	Type ContentType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the union with an explicit discriminant.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte("null"), nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	switch c.Type() {
	case ContentTypeText:
		data, err = json.Marshal(c.Text)
	case ContentTypeCode:
		data, err = json.Marshal(c.Code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content data: %w", err)
	}

	return json.Marshal(contentEnvelope{Type: c.Type(), Data: data})
}

// UnmarshalJSON decodes {"type", "data"}; unknown types are rejected.
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var env contentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("invalid content: %w", err)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return fmt.Errorf("invalid content: missing data for type %q", env.Type)
	}

	switch env.Type {
	case ContentTypeText:
		var text TextContent
		if err := json.Unmarshal(env.Data, &text); err != nil {
			return fmt.Errorf("invalid Text content: %w", err)
		}
		c.Text = &text
	case ContentTypeCode:
		var code CodeContent
		if err := json.Unmarshal(env.Data, &code); err != nil {
			return fmt.Errorf("invalid Code content: %w", err)
		}
		c.Code = &code
	default:
		return fmt.Errorf("invalid content: unknown type %q", env.Type)
	}

	return nil
}
