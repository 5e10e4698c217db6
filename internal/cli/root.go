// Package cli implements gozectl, the operator command line.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"goze/internal/scheduler"
	"goze/internal/services"
)

// Syncer runs transaction syncs.
type Syncer interface {
	RunAll(ctx context.Context) (*scheduler.RunResult, error)
	SyncUser(ctx context.Context, userID string) (*scheduler.RunResult, error)
	SyncItem(ctx context.Context, itemID string) (*scheduler.ItemResult, error)
}

// Backend is what the commands operate on.
type Backend struct {
	Syncer Syncer
	Users  services.UserServicer
	Audit  services.AuditServicer
}

// OpenFunc connects a Backend; the returned func releases it.
type OpenFunc func(ctx context.Context) (*Backend, func(), error)

// NewRootCommand creates the root CLI command with all subcommands registered.
// stdin is read for passwords when a flag omits them.
func NewRootCommand(open OpenFunc, stdin io.Reader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gozectl",
		Short: "Operate a goze deployment",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSyncCommand(open))
	rootCmd.AddCommand(newUserCommand(open, stdin))

	return rootCmd
}

// withBackend opens the backend for the duration of fn.
func withBackend(ctx context.Context, open OpenFunc, fn func(*Backend) error) error {
	backend, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(backend)
}
