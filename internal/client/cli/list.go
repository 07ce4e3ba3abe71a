package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/notex/internal/models"
)

const previewLen = 60

// parseKindArg принимает имя типа в единственном или множественном числе
func parseKindArg(arg string) (models.Kind, error) {
	switch strings.ToLower(arg) {
	case "notebook", "notebooks":
		return models.KindNotebook, nil
	case "note", "notes":
		return models.KindNote, nil
	case "block", "blocks", "contentblock", "contentblocks", "content-block", "content-blocks":
		return models.KindContentBlock, nil
	default:
		return "", fmt.Errorf("unknown resource kind: %s. Use: notebooks, notes or blocks", arg)
	}
}

func (c *Cli) runList(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing resource kind. Usage: notex list <notebooks|notes|blocks>")
	}

	kind, err := parseKindArg(args[0])
	if err != nil {
		return err
	}

	resources, err := c.replica.ListResources(ctx, kind)
	if err != nil {
		return err
	}

	c.io.Printf("=== %s ===\n", kind)
	c.io.Println()

	if len(resources) == 0 {
		c.io.Println("Nothing found. Run 'notex sync' to fetch data from server.")
		return nil
	}

	for i, res := range resources {
		switch r := res.(type) {
		case *models.Notebook:
			c.io.Printf("%d. %s\n", i+1, r.Name)
			c.io.Printf("   ID: %d  Version: %d\n", r.ID, r.SystemUpdatedAt)
		case *models.Note:
			c.io.Printf("%d. %s\n", i+1, r.Title)
			c.io.Printf("   ID: %d  Notebook: %d  Version: %d\n", r.ID, r.NotebookID, r.SystemUpdatedAt)
			if len(r.Tags) > 0 {
				c.io.Printf("   Tags: %s\n", strings.Join(r.Tags, ", "))
			}
		case *models.ContentBlock:
			c.io.Printf("%d. [%s] %s\n", i+1, r.Content.Type(), preview(r.Content))
			c.io.Printf("   ID: %d  Note: %d  Version: %d\n", r.ID, r.NoteID, r.SystemUpdatedAt)
		}
	}
	c.io.Println()
	c.io.Printf("Total: %d\n", len(resources))

	return nil
}

// preview возвращает первую строку содержимого, обрезанную до previewLen рун
func preview(content models.Content) string {
	var text string
	switch {
	case content.Text != nil:
		text = content.Text.Text
	case content.Code != nil:
		text = content.Code.Language + ": " + content.Code.Code
	}

	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i] + " …"
	}
	if runes := []rune(text); len(runes) > previewLen {
		text = string(runes[:previewLen]) + "…"
	}
	return text
}
