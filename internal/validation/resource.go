package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iudanet/notex/internal/models"
)

const (
	// MaxNameLen максимальная длина названия блокнота
	MaxNameLen = 256
	// MaxTitleLen максимальная длина заголовка заметки
	MaxTitleLen = 512
	// MaxTags максимальное количество тегов у заметки
	MaxTags = 64
	// MaxTagLen максимальная длина одного тега
	MaxTagLen = 64
	// MaxLanguageLen максимальная длина названия языка в Code блоке
	MaxLanguageLen = 64
)

// FieldError describes a rejected field of a create or update payload.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldErr(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateNewNotebook checks the create payload of a notebook.
func ValidateNewNotebook(p *models.NewNotebook) error {
	return validateName(p.Name)
}

// ValidateNotebookUpdate checks that the update carries at least one valid field.
func ValidateNotebookUpdate(p *models.NotebookUpdate) error {
	if p.Name == nil {
		return fieldErr("name", "update carries no fields")
	}
	return validateName(*p.Name)
}

// ValidateNewNote checks the create payload of a note.
// Title and notebookId are required.
func ValidateNewNote(p *models.NewNote) error {
	if err := validateTitle(p.Title); err != nil {
		return err
	}
	if p.NotebookID <= 0 {
		return fieldErr("notebookId", "is required")
	}
	return validateTags(p.Tags)
}

// ValidateNoteUpdate checks a partial note update.
func ValidateNoteUpdate(p *models.NoteUpdate) error {
	if p.Title == nil && p.Tags == nil && p.UpdatedAt == nil {
		return fieldErr("note", "update carries no fields")
	}
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.UpdatedAt != nil && p.UpdatedAt.IsZero() {
		return fieldErr("updatedAt", "must not be zero")
	}
	return validateTags(p.Tags)
}

// ValidateNewContentBlock checks the create payload of a content block.
func ValidateNewContentBlock(p *models.NewContentBlock) error {
	if err := validateContent(p.Content); err != nil {
		return err
	}
	if p.NoteID <= 0 {
		return fieldErr("noteId", "is required")
	}
	return nil
}

// ValidateContentBlockUpdate checks a partial content block update.
func ValidateContentBlockUpdate(p *models.ContentBlockUpdate) error {
	if p.Content == nil && p.UpdatedAt == nil {
		return fieldErr("contentBlock", "update carries no fields")
	}
	if p.Content != nil {
		if err := validateContent(*p.Content); err != nil {
			return err
		}
	}
	if p.UpdatedAt != nil && p.UpdatedAt.IsZero() {
		return fieldErr("updatedAt", "must not be zero")
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fieldErr("name", "cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return fieldErr("name", "must not exceed %d characters", MaxNameLen)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fieldErr("title", "cannot be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return fieldErr("title", "must not exceed %d characters", MaxTitleLen)
	}
	return nil
}

// validateTags проверяет теги; порядок и дубликаты не ограничиваются
func validateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fieldErr("tags", "must not contain more than %d tags", MaxTags)
	}
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fieldErr(fmt.Sprintf("tags[%d]", i), "cannot be empty")
		}
		if utf8.RuneCountInString(tag) > MaxTagLen {
			return fieldErr(fmt.Sprintf("tags[%d]", i), "must not exceed %d characters", MaxTagLen)
		}
	}
	return nil
}

func validateContent(c models.Content) error {
	if err := c.Validate(); err != nil {
		return fieldErr("content", "%v", err)
	}
	if c.Code != nil {
		if strings.TrimSpace(c.Code.Language) == "" {
			return fieldErr("content.data.language", "cannot be empty")
		}
		if utf8.RuneCountInString(c.Code.Language) > MaxLanguageLen {
			return fieldErr("content.data.language", "must not exceed %d characters", MaxLanguageLen)
		}
	}
	return nil
}
