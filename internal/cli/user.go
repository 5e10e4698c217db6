package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"goze/internal/validator"
)

const minPasswordLength = 8

func newUserCommand(open OpenFunc, stdin io.Reader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCommand(open, stdin))
	cmd.AddCommand(newUserAuditCommand(open))
	return cmd
}

func newUserAuditCommand(open OpenFunc) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit <username>",
		Short: "Show a user's recent audit events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				user, err := b.Users.GetUserByUsername(args[0])
				if err != nil {
					return err
				}
				entries, err := b.Audit.ListForUser(user.ID, limit)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tACTION\tRESOURCE\tIP\tDETAILS")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						e.CreatedAt.UTC().Format(time.RFC3339), e.Action, e.ResourceType, e.IPAddress, e.Changes)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	return cmd
}

func newUserAddCommand(open OpenFunc, stdin io.Reader) *cobra.Command {
	var username, email, password, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an active user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !validator.IsUsername(username) {
				return fmt.Errorf("invalid username %q", username)
			}

			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				var err error
				password, err = readPassword(stdin)
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if len(password) < minPasswordLength {
				return fmt.Errorf("password must be at least %d characters", minPasswordLength)
			}

			return withBackend(cmd.Context(), open, func(b *Backend) error {
				user, err := b.Users.CreateUser(username, email, password, firstName, lastName)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s created with ID %s\n", user.Username, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted for when omitted)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// readPassword reads without echo from a terminal, or one line otherwise.
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no password on stdin")
}
