package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/notex/internal/client/sync"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()

	result, err := c.syncService.Sync(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.io.Println("✓ Synchronization completed successfully!")
	c.io.Println()
	c.io.Printf("Pages requested:    %d\n", result.Pages)
	c.io.Printf("Entries received:   %d\n", result.Received)
	c.io.Printf("Resources updated:  %d\n", result.Upserted)
	c.io.Printf("Resources deleted:  %d\n", result.Tombstoned)
	if result.Skipped > 0 {
		c.io.Printf("Already applied:    %d\n", result.Skipped)
	}
	c.io.Printf("Watermark:          %d\n", result.Watermark)

	return nil
}

func (c *Cli) runWatch(ctx context.Context) error {
	c.io.Println("=== Watching for changes (Ctrl+C to stop) ===")

	err := c.syncService.Watch(ctx, func(r *sync.SyncResult) {
		c.io.Printf("synced to %d: %d updated, %d deleted\n", r.Watermark, r.Upserted, r.Tombstoned)
	})
	if errors.Is(err, context.Canceled) {
		c.io.Println("Stopped.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	return nil
}
