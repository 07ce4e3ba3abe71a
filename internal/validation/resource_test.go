package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notex/internal/models"
)

func strPtr(s string) *string { return &s }

func TestValidateNewNotebook(t *testing.T) {
	tests := []struct {
		name    string
		payload models.NewNotebook
		wantErr bool
		field   string
	}{
		{name: "valid", payload: models.NewNotebook{Name: "Work"}},
		{name: "empty name", payload: models.NewNotebook{Name: ""}, wantErr: true, field: "name"},
		{name: "whitespace name", payload: models.NewNotebook{Name: "   "}, wantErr: true, field: "name"},
		{name: "max length", payload: models.NewNotebook{Name: strings.Repeat("я", MaxNameLen)}},
		{name: "too long", payload: models.NewNotebook{Name: strings.Repeat("a", MaxNameLen+1)}, wantErr: true, field: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewNotebook(&tt.payload)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestValidateNotebookUpdate(t *testing.T) {
	assert.NoError(t, ValidateNotebookUpdate(&models.NotebookUpdate{Name: strPtr("Home")}))
	assert.Error(t, ValidateNotebookUpdate(&models.NotebookUpdate{}))
	assert.Error(t, ValidateNotebookUpdate(&models.NotebookUpdate{Name: strPtr("")}))
}

func TestValidateNewNote(t *testing.T) {
	tests := []struct {
		name    string
		payload models.NewNote
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid with duplicate tags",
			payload: models.NewNote{Title: "Plan", NotebookID: 1, Tags: []string{"a", "a"}},
		},
		{
			name:    "valid without tags",
			payload: models.NewNote{Title: "Plan", NotebookID: 1},
		},
		{
			name:    "missing title",
			payload: models.NewNote{NotebookID: 1},
			wantErr: true,
			errMsg:  "title: cannot be empty",
		},
		{
			name:    "missing notebook",
			payload: models.NewNote{Title: "Plan"},
			wantErr: true,
			errMsg:  "notebookId: is required",
		},
		{
			name:    "empty tag",
			payload: models.NewNote{Title: "Plan", NotebookID: 1, Tags: []string{"ok", ""}},
			wantErr: true,
			errMsg:  "tags[1]",
		},
		{
			name:    "too many tags",
			payload: models.NewNote{Title: "Plan", NotebookID: 1, Tags: make([]string, MaxTags+1)},
			wantErr: true,
			errMsg:  "must not contain more than",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewNote(&tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNoteUpdate(t *testing.T) {
	now := time.Now()
	var zero time.Time

	assert.Error(t, ValidateNoteUpdate(&models.NoteUpdate{}), "empty update must be rejected")
	assert.NoError(t, ValidateNoteUpdate(&models.NoteUpdate{Tags: []string{}}), "clearing tags is a change")
	assert.NoError(t, ValidateNoteUpdate(&models.NoteUpdate{Title: strPtr("New"), UpdatedAt: &now}))
	assert.Error(t, ValidateNoteUpdate(&models.NoteUpdate{Title: strPtr(" ")}))
	assert.Error(t, ValidateNoteUpdate(&models.NoteUpdate{UpdatedAt: &zero}))
}

func TestValidateNewContentBlock(t *testing.T) {
	tests := []struct {
		name    string
		payload models.NewContentBlock
		wantErr bool
	}{
		{name: "text", payload: models.NewContentBlock{Content: models.NewTextContent("hi"), NoteID: 2}},
		{name: "empty text is allowed", payload: models.NewContentBlock{Content: models.NewTextContent(""), NoteID: 2}},
		{name: "code", payload: models.NewContentBlock{Content: models.NewCodeContent("go", "x := 1"), NoteID: 2}},
		{name: "code without language", payload: models.NewContentBlock{Content: models.NewCodeContent("", "x"), NoteID: 2}, wantErr: true},
		{name: "no content", payload: models.NewContentBlock{NoteID: 2}, wantErr: true},
		{name: "no note", payload: models.NewContentBlock{Content: models.NewTextContent("hi")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewContentBlock(&tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateContentBlockUpdate(t *testing.T) {
	content := models.NewTextContent("updated")
	empty := models.Content{}
	now := time.Now()

	assert.Error(t, ValidateContentBlockUpdate(&models.ContentBlockUpdate{}))
	assert.NoError(t, ValidateContentBlockUpdate(&models.ContentBlockUpdate{Content: &content}))
	assert.NoError(t, ValidateContentBlockUpdate(&models.ContentBlockUpdate{UpdatedAt: &now}))
	assert.Error(t, ValidateContentBlockUpdate(&models.ContentBlockUpdate{Content: &empty}))
}
