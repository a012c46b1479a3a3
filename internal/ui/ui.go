package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"ctxit/internal/apply"
	"ctxit/internal/document"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	PromptColor  = color.New(color.FgMagenta)
)

// Quiet suppresses everything but errors and final reports.
var Quiet bool

func Header(format string, a ...interface{}) {
	if Quiet {
		return
	}
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	if Quiet {
		return
	}
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	if Quiet {
		return
	}
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(os.Stderr, "  "+format+"\n", a...)
}

func Prompt(format string, a ...interface{}) string {
	return PromptColor.Sprintf(format, a...)
}

const rule = "------------------------------"

// PrintGenerateReport summarizes a generate pass.
func PrintGenerateReport(dir, outputPath string, stats document.Stats) {
	fmt.Println(rule)
	fmt.Printf("Directory: %s\n", dir)
	if outputPath != "" {
		fmt.Printf("Output File: %s\n", outputPath)
	}
	fmt.Println("Status: Success")
	fmt.Printf("Files Included in Context Content: %d\n", stats.FilesIncluded)
	fmt.Printf("Items Skipped from Content: %d\n", stats.ItemsSkipped)
	if stats.EstimatedTokens > 0 {
		fmt.Printf("Estimated Token Count: %d\n", stats.EstimatedTokens)
	}
	if len(stats.ReadErrors) > 0 {
		fmt.Printf("Read errors: %s\n", strings.Join(stats.ReadErrors, ", "))
	}
	fmt.Println(rule)
}

// PrintApplyReport summarizes an apply pass, mirroring the report the
// companion generate side expects users to read.
func PrintApplyReport(rep *apply.Report, outputRoot string, dryRun bool) {
	fmt.Println(rule)
	if dryRun {
		fmt.Println("****DRY RUN****")
	}
	fmt.Println("Context Parsing Report")
	fmt.Printf("Output Base Directory: %s\n", outputRoot)

	printCount := func(label string, items []string) {
		if len(items) > 0 {
			fmt.Printf("%s: %d\n", label, len(items))
		}
	}
	printCount("Directories Created", rep.DirsCreated)
	printCount("Files Created", rep.FilesCreated)
	printCount("Files Overwritten", rep.FilesOverwritten)
	printCount("Files Removed", rep.FilesRemoved)
	printCount("Directories Removed", rep.DirsRemoved)
	printCount("Files Skipped (already exist)", rep.FilesSkipped)
	printCount("Directories Skipped (not empty)", rep.DirsSkippedRemoval)

	if len(rep.Errors) > 0 {
		fmt.Printf("Errors (%d):\n", len(rep.Errors))
		for _, e := range rep.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	switch {
	case !rep.HasErrors() && rep.ActionCount() == 0 && len(rep.FilesSkipped) == 0:
		fmt.Println("Status: No actions performed (input might have been empty or only contained skipped items).")
	case !rep.HasErrors():
		fmt.Println("Status: Success")
	default:
		fmt.Println("Status: Completed with errors")
	}

	if dryRun {
		fmt.Println("****")
	}
	fmt.Println(rule)
}

// PrintPendingRemovals lists what a document wants deleted before the
// confirmation prompt.
func PrintPendingRemovals(files, dirs []string) {
	Warning("\nThe following items are marked for DELETION:")
	if len(files) > 0 {
		Warning("Files:")
		for _, f := range files {
			Path("- %s", f)
		}
	}
	if len(dirs) > 0 {
		Warning("Directories:")
		for _, d := range dirs {
			Path("- %s", d)
		}
	}
}

// ConfirmRemovals asks the user to approve the staged deletions.
func ConfirmRemovals() bool {
	fmt.Print(Prompt("Proceed with deletions? [y/N]: "))
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println("\nDeletion cancelled.")
		return false
	}
	return strings.TrimSpace(strings.ToLower(response)) == "y"
}
