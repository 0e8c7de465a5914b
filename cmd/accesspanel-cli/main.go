// Command accesspanel is the operator CLI for the access panel.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/accesspanel/accesspanel/client"
	"github.com/accesspanel/accesspanel/internal/credstore"
	"github.com/accesspanel/accesspanel/internal/session"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:8080"

var (
	apiClient  *client.Client
	controller *session.Controller
	flagURL    string
	flagFmt    string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("accesspanel version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("accesspanel version %s-dev", version)
}

type configFile struct {
	URL string `yaml:"url"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "accesspanel",
		Short:   "Access panel CLI for tenants, members, roles, and the audit log",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			setupSession(cmd.Context())
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Access panel server URL (env: ACCESSPANEL_URL)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	initCmd := newInitCmd()
	initCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// init runs against a fresh server; skip session resume.
		resolveConfig()
		setupClient()
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newTenantCmd())
	rootCmd.AddCommand(newMemberCmd())
	rootCmd.AddCommand(newRoleCmd())
	rootCmd.AddCommand(newPermissionCmd())
	rootCmd.AddCommand(newAuditCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupClient() {
	apiClient = client.New(flagURL)
}

// setupSession builds the client and session controller, then resumes
// any persisted session. A stale or invalid token degrades to the
// logged-out state; commands that need auth report that themselves.
func setupSession(ctx context.Context) {
	setupClient()

	path, err := credstore.DefaultPath()
	if err != nil {
		fatal("resolve credential path", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	controller = session.NewController(apiClient, credstore.NewFileStore(path), log)

	if err := controller.Bootstrap(ctx); err != nil {
		// Reported through the guard when a command needs the session.
		log.WithError(err).Debug("session resume failed")
	}
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL == defaultURL {
		if v := os.Getenv("ACCESSPANEL_URL"); v != "" {
			flagURL = v
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	cfgPath := filepath.Join(home, ".accesspanel", "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}
	if flagURL == defaultURL && cfg.URL != "" {
		flagURL = cfg.URL
	}
}

// requireSession applies the navigation guard to a command that needs
// the given screen, translating redirects into actionable errors.
func requireSession(path string) {
	snap := controller.Snapshot()

	d := session.Guard(snap, path)
	switch d.Verdict {
	case session.VerdictAllow:
		return
	case session.VerdictRedirect:
		switch d.RedirectTo {
		case session.PathLogin:
			fmt.Fprintln(os.Stderr, "Error: not signed in. Run 'accesspanel login <email>' first.")
		case session.PathSelectTenant:
			fmt.Fprintln(os.Stderr, "Error: no tenant selected. Run 'accesspanel tenant select <id>' first.")
		default:
			fmt.Fprintf(os.Stderr, "Error: redirected to %s\n", d.RedirectTo)
		}
	default:
		fmt.Fprintln(os.Stderr, "Error: session is still initializing, try again.")
	}
	os.Exit(1)
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
