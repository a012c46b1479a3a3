// Package cli wires the ctxit commands. Commands accumulate their outcome
// into an exit code instead of calling os.Exit so main stays testable.
package cli

import (
	"github.com/spf13/cobra"

	"ctxit/internal/logging"
	"ctxit/internal/ui"
)

var (
	verbosity int
	quiet     bool

	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "ctxit",
	Short: "Serialize a directory into a context document and apply documents back",
	Long: `ctxit turns a selected subtree of a filesystem into one portable text
document, and turns such a document back into filesystem changes
(create, overwrite, literal replace, delete).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbosity)
		ui.Quiet = quiet
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable).")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress messages; keep the final report.")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(inspectCmd)
}

// Execute runs the CLI and returns the process exit code: 0 on success, 1
// when any error was recorded or pre-flight failed.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		ui.Error("Error: %v", err)
		return 1
	}
	return exitCode
}
