package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accesspanel/accesspanel/internal/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and persist the session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			password, err := promptPassword("Password: ")
			if err != nil {
				fatal("read password", err)
			}

			outcome, err := controller.Login(context.Background(), args[0], password)
			if err != nil {
				var authErr *session.AuthenticationError
				if errors.As(err, &authErr) {
					fatal("login", errors.New(authErr.Message))
				}
				fatal("login", err)
			}

			switch {
			case outcome.SelectedTenantID != "":
				snap := controller.Snapshot()
				if t, ok := snap.SelectedTenant(); ok {
					fmt.Fprintf(os.Stderr, "Signed in. Active tenant: %s (%s)\n", t.Name, t.Slug)
				}
			case len(outcome.Tenants) == 0:
				fmt.Fprintln(os.Stderr, "Signed in. You have no tenant memberships yet.")
			default:
				fmt.Fprintf(os.Stderr, "Signed in. You belong to %d tenants; pick one with 'accesspanel tenant select <id>'.\n",
					len(outcome.Tenants))
			}

			output(outcome, outcome.SelectedTenantID)
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the session locally",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			controller.Logout()
			fmt.Fprintln(os.Stderr, "Signed out.")
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			snap := controller.Snapshot()

			type whoami struct {
				Phase          string `json:"phase"`
				Email          string `json:"email,omitempty"`
				TenantID       string `json:"tenant_id,omitempty"`
				TenantName     string `json:"tenant_name,omitempty"`
				Role           string `json:"role,omitempty"`
				TenantCount    int    `json:"tenant_count"`
				SelectedTenant bool   `json:"tenant_selected"`
			}

			w := whoami{
				Phase:       snap.Phase().String(),
				TenantCount: len(snap.Tenants),
			}
			if snap.User != nil {
				w.Email = snap.User.Email
			}
			if t, ok := snap.SelectedTenant(); ok {
				w.TenantID = t.ID
				w.TenantName = t.Name
				w.Role = t.Role.Name
				w.SelectedTenant = true
			}

			output(w, w.Email)
		},
	}
}
