package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ctxit/internal/config"
	"ctxit/internal/generator"
	"ctxit/internal/source"
	"ctxit/internal/ui"
)

var (
	genConfigName string
	genSection    string
	genTabWidth   int
	genStdout     bool
	genClipboard  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [directory]",
	Short: "Serialize a directory subtree into a context document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genConfigName, "config", "c", config.DefaultFileName, "Config file name to look for in the directory.")
	generateCmd.Flags().StringVarP(&genSection, "section", "s", "", "Config section to use.")
	generateCmd.Flags().IntVar(&genTabWidth, "tabs-to-spaces", 0, "Replace tabs with N spaces in embedded content.")
	generateCmd.Flags().BoolVar(&genStdout, "stdout", false, "Print the document instead of writing the output file.")
	generateCmd.Flags().BoolVar(&genClipboard, "clipboard", false, "Copy the document to the clipboard instead of writing the output file.")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	cfg, found, err := config.Load(dir, genConfigName, genSection)
	if err != nil {
		return err
	}
	if found {
		ui.Info("Loaded config %s", filepath.Join(dir, genConfigName))
	}

	res, err := generator.Generate(dir, cfg, generator.Options{
		ToolName:   filepath.Base(os.Args[0]),
		ConfigName: genConfigName,
		TabWidth:   genTabWidth,
		Section:    genSection,
	})
	if err != nil {
		return err
	}

	outputPath := ""
	switch {
	case genStdout:
		fmt.Print(res.Render())
	case genClipboard:
		if err := source.WriteClipboard(res.Render()); err != nil {
			return err
		}
		ui.Success("Copied context document to clipboard.")
	default:
		outputPath, err = res.Write(dir)
		if err != nil {
			return err
		}
	}

	if !quiet && !genStdout {
		absDir, _ := filepath.Abs(dir)
		ui.PrintGenerateReport(absDir, outputPath, res.Stats)
	}
	return nil
}
