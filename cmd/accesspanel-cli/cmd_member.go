package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/accesspanel/accesspanel/client"
	"github.com/accesspanel/accesspanel/internal/session"
)

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage tenant members",
	}
	cmd.AddCommand(memberListCmd())
	cmd.AddCommand(memberCreateCmd())
	return cmd
}

// memberPageSize is the in-memory page size for member listings. Member
// lists are small and bounded, so the whole list is fetched and paged
// client-side; the audit log is the only cursor-paginated surface.
const memberPageSize = 25

func memberListCmd() *cobra.Command {
	var filter string
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members of the active tenant",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			requireSession(session.PathDefault)

			ctx := context.Background()

			// The member screen needs roles too (to label role ids);
			// fetch both in one round.
			var members []client.MemberRow
			var roles []client.Role

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				members, err = apiClient.Members.List(gctx)
				return err
			})
			g.Go(func() error {
				var err error
				roles, err = apiClient.Roles.List(gctx)
				return err
			})
			if err := g.Wait(); err != nil {
				fatal("list members", err)
			}

			roleNames := make(map[string]string, len(roles))
			for _, r := range roles {
				roleNames[r.ID] = r.Name
			}

			members = filterMembers(members, filter)
			paged, pages := pageMembers(members, page, memberPageSize)

			if flagFmt == "table" {
				headers := []string{"ID", "EMAIL", "ROLE", "SINCE"}
				var rows [][]string
				for _, m := range paged {
					name := m.RoleName
					if name == "" {
						name = roleNames[m.RoleID]
					}
					rows = append(rows, []string{m.ID, m.Email, name, m.CreatedAt.Format("2006-01-02")})
				}
				formatTable(headers, rows)
				if pages > 1 {
					fmt.Printf("\nPage %d of %d (%d members). Use --page to switch.\n", page, pages, len(members))
				}
				return
			}
			output(paged, "")
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Substring filter on email or role name")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

// filterMembers keeps members whose email or role name contains the
// filter, case-insensitively. An empty filter keeps everything.
func filterMembers(members []client.MemberRow, filter string) []client.MemberRow {
	if filter == "" {
		return members
	}

	needle := strings.ToLower(filter)
	var out []client.MemberRow
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Email), needle) ||
			strings.Contains(strings.ToLower(m.RoleName), needle) {
			out = append(out, m)
		}
	}
	return out
}

// pageMembers slices one page out of the full list and reports the page
// count. Out-of-range pages clamp to the nearest valid page.
func pageMembers(members []client.MemberRow, page, size int) ([]client.MemberRow, int) {
	if size <= 0 {
		size = memberPageSize
	}
	pages := (len(members) + size - 1) / size
	if pages == 0 {
		return nil, 0
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > len(members) {
		end = len(members)
	}
	return members[start:end], pages
}

func memberCreateCmd() *cobra.Command {
	var roleID string
	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Invite a user into the active tenant",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			requireSession(session.PathDefault)

			if roleID == "" {
				fatal("create member", fmt.Errorf("--role is required; see 'accesspanel role list'"))
			}

			password, err := promptPassword("Initial password: ")
			if err != nil {
				fatal("read password", err)
			}

			created, err := apiClient.Members.Create(context.Background(), &client.CreateMemberRequest{
				Email:    args[0],
				Password: password,
				RoleID:   roleID,
			})
			if err != nil {
				fatal("create member", err)
			}
			output(created, created.ID)
		},
	}
	cmd.Flags().StringVar(&roleID, "role", "", "Role id for the new member")
	return cmd
}
