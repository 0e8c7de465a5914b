package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/accesspanel/accesspanel/client"
	"github.com/accesspanel/accesspanel/internal/session"
)

func newRoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage roles of the active tenant",
	}
	cmd.AddCommand(roleListCmd())
	cmd.AddCommand(roleCreateCmd())
	cmd.AddCommand(roleUpdateCmd())
	return cmd
}

func roleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List roles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			requireSession(session.PathDefault)

			roles, err := apiClient.Roles.List(context.Background())
			if err != nil {
				fatal("list roles", err)
			}

			if flagFmt == "table" {
				headers := []string{"ID", "NAME", "SYSTEM", "PERMISSIONS"}
				var rows [][]string
				for _, r := range roles {
					rows = append(rows, []string{
						r.ID, r.Name, strconv.FormatBool(r.IsSystem),
						strings.Join(r.PermissionCodes, ","),
					})
				}
				formatTable(headers, rows)
				return
			}
			output(roles, "")
		},
	}
}

func roleCreateCmd() *cobra.Command {
	var perms []string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a custom role",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			requireSession(session.PathDefault)

			role, err := apiClient.Roles.Create(context.Background(), &client.CreateRoleRequest{
				Name:            args[0],
				PermissionCodes: perms,
			})
			if err != nil {
				fatal("create role", err)
			}
			output(role, role.ID)
		},
	}
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "Permission code to grant (repeatable)")
	return cmd
}

func roleUpdateCmd() *cobra.Command {
	var name string
	var perms []string
	cmd := &cobra.Command{
		Use:   "update <role-id>",
		Short: "Rename a role or replace its permission grants",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			requireSession(session.PathDefault)

			req := &client.UpdateRoleRequest{}
			if name != "" {
				req.Name = &name
			}
			if cmd.Flags().Changed("perm") {
				req.PermissionCodes = &perms
			}

			role, err := apiClient.Roles.Update(context.Background(), args[0], req)
			if err != nil {
				fatal("update role", err)
			}
			output(role, role.ID)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New role name")
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "Replacement permission code (repeatable; pass none to clear)")
	return cmd
}

func newPermissionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "permissions",
		Short: "List the permission catalogue",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			snap := controller.Snapshot()
			if snap.Token == "" {
				requireSession(session.PathDefault)
			}

			perms, err := apiClient.Permissions.List(context.Background())
			if err != nil {
				fatal("list permissions", err)
			}

			if flagFmt == "table" {
				headers := []string{"CODE", "DESCRIPTION"}
				var rows [][]string
				for _, p := range perms {
					rows = append(rows, []string{p.Code, p.Description})
				}
				formatTable(headers, rows)
				return
			}
			output(perms, "")
		},
	}
}
