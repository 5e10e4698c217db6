package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"goze/internal/scheduler"
	"goze/internal/uuid"
)

func newSyncCommand(open OpenFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull the Plaid transactions feed now",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Sync every active linked item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				result, err := b.Syncer.RunAll(cmd.Context())
				if err != nil {
					return err
				}
				printRunResult(cmd.OutOrStdout(), result)
				if result.Failed > 0 {
					return fmt.Errorf("%d of %d items failed", result.Failed, result.Items)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "user <user-id>",
		Short: "Sync one user's active linked items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				result, err := b.Syncer.SyncUser(cmd.Context(), userID)
				if result != nil {
					printRunResult(cmd.OutOrStdout(), result)
				}
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "item <item-id>",
		Short: "Sync one linked item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				result, err := b.Syncer.SyncItem(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				printItemResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	})

	return cmd
}

func printRunResult(w io.Writer, r *scheduler.RunResult) {
	fmt.Fprintf(w, "items: %d  succeeded: %d  failed: %d\n", r.Items, r.Succeeded, r.Failed)
	fmt.Fprintf(w, "added: %d  updated: %d  removed: %d  skipped: %d\n", r.Added, r.Updated, r.Removed, r.Skipped)
	fmt.Fprintf(w, "duration: %s\n", r.Duration)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "error: item %s (user %s): %s\n", e.ItemID, e.UserID, e.Error)
	}
}

func printItemResult(w io.Writer, r *scheduler.ItemResult) {
	fmt.Fprintf(w, "item: %s  pages: %d\n", r.ItemID, r.Pages)
	fmt.Fprintf(w, "added: %d  updated: %d  removed: %d  skipped: %d\n", r.Added, r.Updated, r.Removed, r.Skipped)
	if r.NoAccounts {
		fmt.Fprintln(w, "warning: item has no accounts; cursor not advanced")
	}
}
