// Package main implements refactorctl, the operator CLI over the
// refactorcore engine: build a plan from an intent, preview it, and
// apply it through the same executor the long-running service uses.
package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	projectRoot   string
	jsonOutput    bool
	yes           bool
	telemetryPort int
	detectorTTL   time.Duration

	rootCmd = &cobra.Command{
		Use:   "refactorctl",
		Short: "Plan and apply workspace-wide code refactors",
		Long: `refactorctl drives the refactorcore edit-planning and atomic-application
pipeline from the command line: build an edit plan for a rename, a
find-and-replace, or an extraction, preview the diff, and apply it
across a polyglot source tree.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveProjectRoot()
		},
	}

	renameCmd = &cobra.Command{
		Use:   "rename <old-path> <new-path>",
		Short: "Move or rename a file or directory, rewriting every importer",
		Args:  cobra.ExactArgs(2),
		RunE:  runRename,
	}

	findReplaceCmd = &cobra.Command{
		Use:   "find-replace <literal> <replacement> [path...]",
		Short: "Replace a literal text occurrence across one or more files",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runFindReplace,
	}

	applyCmd = &cobra.Command{
		Use:   "apply <plan.json>",
		Short: "Apply a previously built edit plan",
		Args:  cobra.ExactArgs(1),
		RunE:  runApply,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the operator health and metrics HTTP surface",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", "", "project root (defaults to the current directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit the built plan as JSON instead of a rendered preview")
	rootCmd.PersistentFlags().DurationVar(&detectorTTL, "detector-cache-ttl", 0, "override how long a cached per-file import parse survives (0 keeps the package default)")

	renameCmd.Flags().BoolVar(&yes, "yes", false, "apply without an interactive confirmation")
	renameCmd.Flags().String("consolidate-into", "", "treat this rename as a consolidation into an existing crate/package")

	findReplaceCmd.Flags().BoolVar(&yes, "yes", false, "apply without an interactive confirmation")

	applyCmd.Flags().BoolVar(&yes, "yes", false, "apply without an interactive confirmation")

	serveCmd.Flags().IntVar(&telemetryPort, "port", 9090, "listen port for /healthz and /metrics")

	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(findReplaceCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("refactorctl: %v", err)
	}
}
