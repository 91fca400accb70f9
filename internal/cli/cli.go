// Package cli implements the shopcheck command line: installing browsers, inspecting settings,
// querying the run history and cleaning artifacts.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/networkteam/shopcheck"
	"github.com/networkteam/shopcheck/artifacts"
	"github.com/networkteam/shopcheck/config"
	"github.com/networkteam/shopcheck/history"
)

// redacted replaces header values in the config output unless --show-secrets is given.
const redacted = "********"

type globalFlags struct {
	configDir   string
	environment string
	root        string
}

func (g *globalFlags) load() (*config.Settings, error) {
	return config.Load(config.LoadOptions{
		Dir:         g.configDir,
		Environment: g.environment,
	})
}

func (g *globalFlags) artifacts(settings *config.Settings) *artifacts.Manager {
	root := g.root
	if root == "" {
		root = artifacts.ProjectRoot()
	}
	return artifacts.New(root, settings.Reporting.OutputPath)
}

// NewRootCommand builds the command tree. Output is written to the command's out writer.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "shopcheck",
		Short:         "End-to-end checks for the demo shop and users API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "directory containing settings.yaml (default $SHOPCHECK_CONFIG_DIR or the project root)")
	rootCmd.PersistentFlags().StringVarP(&flags.environment, "env", "e", "", "environment overlay to load (default $TEST_ENVIRONMENT or dev)")
	rootCmd.PersistentFlags().StringVar(&flags.root, "root", "", "project root for artifact paths (default: nearest go.mod)")

	rootCmd.AddCommand(
		newInstallCommand(flags),
		newConfigCommand(flags),
		newViewportsCommand(),
		newHistoryCommand(flags),
		newCleanCommand(flags),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newInstallCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the Playwright driver and the configured browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := flags.load()
			if err != nil {
				return err
			}
			if err := shopcheck.Install(settings.UI); err != nil {
				return fmt.Errorf("installing browser %q: %w", settings.UI.Browser, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed driver and browser %q\n", settings.UI.Browser)
			return nil
		},
	}
}

func newConfigCommand(flags *globalFlags) *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as YAML",
		Long: `Print the settings after applying all layers: defaults, settings.yaml,
settings.<env>.yaml, the secrets overlay and environment variables.

API header values are redacted unless --show-secrets is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := flags.load()
			if err != nil {
				return err
			}
			out := *settings
			if !showSecrets {
				out.API.Headers = lo.MapValues(settings.API.Headers, func(string, string) string { return redacted })
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encoding settings: %w", err)
			}
			return enc.Close()
		},
	}
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print header values in clear text")
	return cmd
}

func newViewportsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "viewports",
		Short: "List the predefined viewport profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROFILE\tWIDTH\tHEIGHT")
			for _, p := range config.Profiles() {
				width, height := p.Size()
				if p == config.ProfileCustom {
					fmt.Fprintf(w, "%s\t-\t-\n", p)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\n", p, width, height)
			}
			return w.Flush()
		},
	}
}

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the recorded run history",
	}

	var runsLimit int
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs with their outcome counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(flags, func(store *history.Store) error {
				runs, err := store.Runs(cmd.Context(), runsLimit)
				if err != nil {
					return err
				}
				return printRuns(cmd.OutOrStdout(), runs)
			})
		},
	}
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show")

	var flakyRuns int
	flakyCmd := &cobra.Command{
		Use:   "flaky",
		Short: "List tests that both passed and failed within the last runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(flags, func(store *history.Store) error {
				names, err := store.Flaky(cmd.Context(), flakyRuns)
				if err != nil {
					return err
				}
				if len(names) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No flaky tests in the last %d runs\n", flakyRuns)
					return nil
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
	flakyCmd.Flags().IntVar(&flakyRuns, "runs", 10, "number of most recent runs to consider")

	var recentLimit int
	recentCmd := &cobra.Command{
		Use:   "recent <test-name>",
		Short: "Show the latest outcomes of one test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(flags, func(store *history.Store) error {
				outcomes, err := store.Recent(cmd.Context(), args[0], recentLimit)
				if err != nil {
					return err
				}
				return printOutcomes(cmd.OutOrStdout(), outcomes)
			})
		},
	}
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "number of outcomes to show")

	cmd.AddCommand(runsCmd, flakyCmd, recentCmd)
	return cmd
}

func withHistory(flags *globalFlags, fn func(store *history.Store) error) error {
	settings, err := flags.load()
	if err != nil {
		return err
	}
	if settings.Reporting.HistoryDB == "" {
		return fmt.Errorf("run history is disabled (reporting.history_db is empty)")
	}
	path := settings.Reporting.HistoryDB
	if !filepath.IsAbs(path) {
		path = filepath.Join(flags.artifacts(settings).ReportsDir(), path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no run history at %s: %w", path, err)
	}

	store, err := history.Open(path, history.Options{})
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func printRuns(out io.Writer, runs []history.RunSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tENV\tDURATION\tRESULTS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.Started.Local().Format(time.DateTime),
			r.Environment,
			r.Ended.Sub(r.Started).Round(time.Second),
			formatCounts(r.Counts),
		)
	}
	return w.Flush()
}

func printOutcomes(out io.Writer, outcomes []history.RecordedOutcome) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tDURATION\tCATEGORIES")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			o.Started.Local().Format(time.DateTime),
			o.Status,
			o.Duration.Round(time.Millisecond),
			strings.Join(o.Categories, ", "),
		)
	}
	return w.Flush()
}

// formatCounts renders counts in severity order, e.g. "pass=3 fail=1".
func formatCounts(counts map[string]int) string {
	order := []string{"pass", "warning", "skip", "fail", "info"}
	parts := lo.FilterMap(order, func(status string, _ int) (string, bool) {
		n, ok := counts[status]
		return fmt.Sprintf("%s=%d", status, n), ok
	})
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func newCleanCommand(flags *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove reports, screenshots, videos and traces",
		Long: `Remove generated reports and artifacts from the reports directory.

The run history database and log files are kept unless --all is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := flags.load()
			if err != nil {
				return err
			}
			removed, err := clean(flags.artifacts(settings), all)
			for _, path := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), "removed", path)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove the whole reports directory including history and logs")
	return cmd
}

func clean(manager *artifacts.Manager, all bool) ([]string, error) {
	reportsDir := manager.ReportsDir()
	if all {
		if _, err := os.Stat(reportsDir); err != nil {
			return nil, nil
		}
		if err := os.RemoveAll(reportsDir); err != nil {
			return nil, fmt.Errorf("removing %s: %w", reportsDir, err)
		}
		return []string{reportsDir}, nil
	}

	var removed []string
	for _, dir := range []string{manager.ScreenshotsDir(), manager.VideosDir(), manager.TracesDir()} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("removing %s: %w", dir, err)
		}
		removed = append(removed, dir)
	}

	reports, err := filepath.Glob(filepath.Join(reportsDir, "*.html"))
	if err != nil {
		return removed, err
	}
	for _, path := range reports {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
