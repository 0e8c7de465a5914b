package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accesspanel/accesspanel/internal/session"
)

func newTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "List and switch tenants",
	}
	cmd.AddCommand(tenantListCmd())
	cmd.AddCommand(tenantSelectCmd())
	return cmd
}

func tenantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your tenant memberships",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			snap := controller.Snapshot()
			if snap.Token == "" {
				requireSession(session.PathDefault)
			}

			if flagFmt == "table" {
				headers := []string{"ID", "NAME", "SLUG", "ROLE", "ACTIVE"}
				var rows [][]string
				for _, t := range snap.Tenants {
					active := ""
					if t.ID == snap.SelectedTenantID {
						active = "*"
					}
					rows = append(rows, []string{t.ID, t.Name, t.Slug, t.Role.Name, active})
				}
				formatTable(headers, rows)
				return
			}
			output(snap.Tenants, snap.SelectedTenantID)
		},
	}
}

func tenantSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <tenant-id>",
		Short: "Set the active tenant for subsequent commands",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := controller.SelectTenant(args[0]); err != nil {
				if errors.Is(err, session.ErrUnknownTenant) {
					fatal("tenant select", errors.New("you are not a member of that tenant; see 'accesspanel tenant list'"))
				}
				fatal("tenant select", err)
			}

			snap := controller.Snapshot()
			if t, ok := snap.SelectedTenant(); ok {
				fmt.Fprintf(os.Stderr, "Active tenant: %s (%s)\n", t.Name, t.Slug)
			}
		},
	}
}
