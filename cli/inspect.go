package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ctxit/internal/document"
	"ctxit/internal/source"
	"ctxit/internal/ui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [input-file]",
	Short: "List the structure of a context document without applying it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	input := ""
	if len(args) == 1 {
		input = args[0]
	}

	text, err := source.New().Read(input)
	if err != nil {
		return err
	}
	if text == "" {
		ui.Warning("Source is empty. Nothing to inspect.")
		return nil
	}

	entries, err := document.Outline([]byte(text))
	if err != nil {
		return err
	}

	var headings, blocks int
	for _, e := range entries {
		switch e.Kind {
		case "heading":
			headings++
			fmt.Printf("%s %s\n", strings.Repeat("#", e.Level), e.Text)
		case "code":
			blocks++
			lang := e.Text
			if lang == "" {
				lang = "plain"
			}
			fmt.Printf("    [%s code block: %d lines, %d bytes]\n", lang, e.Lines, e.Bytes)
		}
	}
	ui.Info("%d heading(s), %d code block(s)", headings, blocks)
	return nil
}
