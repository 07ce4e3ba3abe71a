package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/notex/internal/models"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Replica Status ===")
	c.io.Println()

	stats, err := c.replica.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read replica: %w", err)
	}

	if stats.Watermark == 0 {
		c.io.Println("Never synchronized. Run 'notex sync' to fetch data from server.")
		return nil
	}

	c.io.Printf("Watermark:      %d\n", stats.Watermark)
	c.io.Printf("Notebooks:      %d\n", stats.Resources[models.KindNotebook])
	c.io.Printf("Notes:          %d\n", stats.Resources[models.KindNote])
	c.io.Printf("Content blocks: %d\n", stats.Resources[models.KindContentBlock])
	c.io.Printf("Tombstones:     %d\n", stats.Tombstones)

	return nil
}
