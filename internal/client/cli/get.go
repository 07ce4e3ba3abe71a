package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/iudanet/notex/internal/client/storage"
)

func (c *Cli) runGet(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("missing arguments. Usage: notex get <kind> <id>")
	}

	kind, err := parseKindArg(args[0])
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid id: %s", args[1])
	}

	res, err := c.replica.GetResource(ctx, kind, id)
	if err == nil {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format %s: %w", kind, err)
		}
		c.io.Printf("%s\n", data)
		return nil
	}
	if !errors.Is(err, storage.ErrResourceNotFound) {
		return fmt.Errorf("failed to get %s: %w", kind, err)
	}

	// Ресурса нет: возможно, он удалён
	del, err := c.replica.GetDeletion(ctx, kind, id)
	if errors.Is(err, storage.ErrDeletionNotFound) {
		return fmt.Errorf("%s not found with ID: %d", kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get deletion: %w", err)
	}

	c.io.Printf("%s %d was deleted at stamp %d\n", kind, id, del.SystemUpdatedAt)
	return nil
}
