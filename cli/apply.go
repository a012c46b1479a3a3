package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"ctxit/internal/apply"
	"ctxit/internal/parser"
	"ctxit/internal/source"
	"ctxit/internal/ui"
)

var (
	applyOutputDir string
	applyOverwrite bool
	applyDryRun    bool
	applyTabWidth  int
	applyYes       bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [input-file]",
	Short: "Apply a context document to the output directory",
	Long: `Reads a context document from the given file, piped stdin or the
clipboard, and reconstructs the files it describes. Deletions are staged
and only executed after confirmation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyOutputDir, "output-dir", "o", ".", "Directory to reconstruct files in.")
	applyCmd.Flags().BoolVar(&applyOverwrite, "overwrite", false, "Overwrite existing files; otherwise they are skipped.")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Simulate without touching the filesystem.")
	applyCmd.Flags().IntVar(&applyTabWidth, "tabs-to-spaces", 0, "Replace tabs with N spaces (e.g. 4).")
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "Automatically confirm prompts such as deletions.")
}

func runApply(cmd *cobra.Command, args []string) error {
	input := ""
	if len(args) == 1 {
		input = args[0]
	}

	text, err := source.New().Read(input)
	if err != nil {
		return err
	}
	if text == "" {
		ui.Warning("Source is empty. Nothing to process.")
		return nil
	}

	parsed := parser.Parse(text)

	engine, err := apply.New(applyOutputDir, apply.Options{
		Overwrite: applyOverwrite,
		DryRun:    applyDryRun,
		TabWidth:  applyTabWidth,
	})
	if err != nil {
		return err
	}
	engine.RecordErrors(parsed.Errors)
	engine.Run(parsed.Instructions)

	absRoot, _ := filepath.Abs(applyOutputDir)

	pendingFiles, pendingDirs := engine.PendingRemovals()
	if (len(pendingFiles) > 0 || len(pendingDirs) > 0) && !applyDryRun && !applyYes {
		ui.PrintPendingRemovals(pendingFiles, pendingDirs)
		if !ui.ConfirmRemovals() {
			ui.Warning("Deletion cancelled by user.")
			rep := engine.Report()
			ui.PrintApplyReport(rep, absRoot, applyDryRun)
			if rep.HasErrors() {
				exitCode = 1
			}
			return nil
		}
	}

	engine.ExecuteRemovals()

	rep := engine.Report()
	ui.PrintApplyReport(rep, absRoot, applyDryRun)
	if rep.HasErrors() {
		exitCode = 1
	}
	return nil
}
