package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_MarshalJSON_WireShape(t *testing.T) {
	tests := []struct {
		name     string
		content  Content
		expected string
	}{
		{
			name:     "text",
			content:  NewTextContent("hi"),
			expected: `{"type":"Text","data":{"text":"hi"}}`,
		},
		{
			name:     "code",
			content:  NewCodeContent("go", "package main"),
			expected: `{"type":"Code","data":{"language":"go","code":"package main"}}`,
		},
		{
			name:     "empty content encodes as null",
			content:  Content{},
			expected: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.content)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestContent_MarshalJSON_BothVariants(t *testing.T) {
	c := Content{Text: &TextContent{Text: "a"}, Code: &CodeContent{Language: "go"}}

	_, err := json.Marshal(c)
	assert.Error(t, err)
}

func TestContent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType ContentType
		wantErr  bool
	}{
		{name: "text", input: `{"type":"Text","data":{"text":"hello"}}`, wantType: ContentTypeText},
		{name: "code", input: `{"type":"Code","data":{"language":"rust","code":"fn main() {}"}}`, wantType: ContentTypeCode},
		{name: "unknown type", input: `{"type":"Image","data":{"url":"x"}}`, wantErr: true},
		{name: "missing data", input: `{"type":"Text"}`, wantErr: true},
		{name: "null data", input: `{"type":"Code","data":null}`, wantErr: true},
		{name: "not an object", input: `"Text"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			err := json.Unmarshal([]byte(tt.input), &c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, c.Type())
			assert.NoError(t, c.Validate())
		})
	}
}

func TestContent_UnmarshalJSON_Fields(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`{"type":"Code","data":{"language":"rust","code":"fn main() {}"}}`), &c)
	require.NoError(t, err)

	require.NotNil(t, c.Code)
	assert.Nil(t, c.Text)
	assert.Equal(t, "rust", c.Code.Language)
	assert.Equal(t, "fn main() {}", c.Code.Code)
}

func TestContent_Validate(t *testing.T) {
	assert.ErrorIs(t, Content{}.Validate(), ErrEmptyContent)
	assert.NoError(t, NewTextContent("").Validate())
	assert.Error(t, Content{Text: &TextContent{}, Code: &CodeContent{}}.Validate())
	assert.Equal(t, ContentType(""), Content{Text: &TextContent{}, Code: &CodeContent{}}.Type())
}
