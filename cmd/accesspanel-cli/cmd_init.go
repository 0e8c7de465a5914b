package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/accesspanel/accesspanel/client"
)

// newInitCmd bootstraps a fresh server: the first tenant plus its Owner
// account. On an already-populated server the call must carry the
// bootstrap token configured on the server.
func newInitCmd() *cobra.Command {
	var slug, email, bootstrapToken string
	cmd := &cobra.Command{
		Use:   "init <tenant-name>",
		Short: "Bootstrap the first tenant and its Owner account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if email == "" {
				fatal("init", fmt.Errorf("--email is required"))
			}
			if slug == "" {
				fatal("init", fmt.Errorf("--slug is required"))
			}
			if bootstrapToken == "" {
				bootstrapToken = os.Getenv("ACCESSPANEL_BOOTSTRAP_TOKEN")
			}

			password, err := promptPassword("Owner password: ")
			if err != nil {
				fatal("read password", err)
			}
			confirm, err := promptPassword("Confirm password: ")
			if err != nil {
				fatal("read password", err)
			}
			if password != confirm {
				fatal("init", fmt.Errorf("passwords do not match"))
			}

			res, err := apiClient.Auth.Bootstrap(context.Background(), &client.BootstrapRequest{
				TenantName: args[0],
				TenantSlug: slug,
				Email:      email,
				Password:   password,
			}, bootstrapToken)
			if err != nil {
				fatal("bootstrap", err)
			}

			fmt.Fprintf(os.Stderr, "Created tenant %q (%s) with owner %s\n",
				res.Tenant.Name, res.Tenant.Slug, res.User.Email)
			fmt.Fprintf(os.Stderr, "Sign in with: accesspanel login %s\n", res.User.Email)
			output(res, res.Tenant.ID)
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "Tenant slug (lowercase, hyphenated)")
	cmd.Flags().StringVar(&email, "email", "", "Owner email address")
	cmd.Flags().StringVar(&bootstrapToken, "bootstrap-token", "", "Bootstrap token, required once accounts exist (env: ACCESSPANEL_BOOTSTRAP_TOKEN)")
	return cmd
}

// promptPassword reads a password without echo when stdin is a
// terminal, falling back to a plain line read otherwise (pipes, CI).
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", err
	}
	return line, nil
}
