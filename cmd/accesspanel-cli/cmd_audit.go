package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/accesspanel/accesspanel/client"
	"github.com/accesspanel/accesspanel/internal/auditlog"
	"github.com/accesspanel/accesspanel/internal/session"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and follow the tenant audit log",
	}
	cmd.AddCommand(auditSearchCmd())
	cmd.AddCommand(auditTailCmd())
	return cmd
}

func auditSearchCmd() *cobra.Command {
	var query, entityType string
	var pages int
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the audit log, newest first",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			requireSession(session.PathDefault)

			log := logrus.New()
			log.SetOutput(os.Stderr)
			log.SetLevel(logrus.WarnLevel)

			engine := auditlog.NewEngine(apiClient, controller, log)
			engine.SetFilters(query, entityType)

			ctx := context.Background()
			if err := engine.Search(ctx); err != nil {
				fatal("audit search", err)
			}

			// Each --pages beyond the first maps to one "load more".
			for i := 1; i < pages; i++ {
				more, err := engine.LoadMore(ctx)
				if err != nil {
					fatal("audit load more", err)
				}
				if !more {
					break
				}
			}

			entries := engine.Entries()
			if flagFmt == "table" {
				printAuditTable(entries)
				if !engine.Exhausted() {
					fmt.Printf("\nMore entries available; re-run with --pages %d\n", pages+1)
				}
				return
			}
			output(entries, "")
		},
	}
	cmd.Flags().StringVar(&query, "q", "", "Free-text filter (action, entity type, actor email)")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "Entity type filter (member, role, ...)")
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to accumulate")
	return cmd
}

func auditTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Stream audit entries live (Ctrl-C to stop)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			requireSession(session.PathDefault)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tail, err := apiClient.Audit.Tail(ctx)
			if err != nil {
				fatal("audit tail", err)
			}
			defer tail.Close()

			for {
				entry, err := tail.Next(ctx)
				if err != nil {
					if errors.Is(err, client.ErrTailClosed) {
						fmt.Fprintln(os.Stderr, "Server closed the stream.")
						return
					}
					if ctx.Err() != nil {
						return
					}
					fatal("audit tail", err)
				}
				printAuditEntry(entry)
			}
		},
	}
}

func printAuditTable(entries []client.AuditEntry) {
	headers := []string{"TIME", "ACTOR", "ACTION", "ENTITY", "ENTITY ID"}
	var rows [][]string
	for _, e := range entries {
		id := ""
		if e.EntityID != nil {
			id = *e.EntityID
		}
		rows = append(rows, []string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.ActorEmail, e.Action, e.EntityType, id,
		})
	}
	formatTable(headers, rows)
}

func printAuditEntry(e *client.AuditEntry) {
	if flagFmt == "table" || flagFmt == "quiet" {
		id := ""
		if e.EntityID != nil {
			id = *e.EntityID
		}
		fmt.Printf("%s  %s  %s  %s %s\n",
			e.CreatedAt.Format("15:04:05"), e.ActorEmail, e.Action, e.EntityType, id)
		return
	}
	formatJSON(e)
}
