package document

import (
	"fmt"
	"strings"
)

// Format renders a document to its literal text form. It is the inverse of
// the parser: parsing the returned text reconstructs the same instructions.
func Format(doc Document) string {
	var buf strings.Builder
	render(&buf, doc)
	return buf.String()
}

func render(buf *strings.Builder, doc Document) {
	for _, b := range doc.Blocks {
		switch b := b.(type) {
		case Preamble:
			buf.WriteString(trimTrailing(b.Text) + "\n\n")
		case FileBlock:
			fmt.Fprintf(buf, "### FILE: %s\n", b.Path)
			fmt.Fprintf(buf, "```%s\n", b.Lang)
			buf.WriteString(trimTrailing(b.Content) + "\n")
			buf.WriteString("```\n\n")
		case DirectorySection:
			fmt.Fprintf(buf, "## DIRECTORYSECTION %s\n\n", b.Path)
			render(buf, b.Children)
		case ReplaceBlock:
			fmt.Fprintf(buf, "### REPLACE IN: %s\n", b.Path)
			buf.WriteString("```\n")
			buf.WriteString(b.Search + "\n")
			buf.WriteString("```\n")
			buf.WriteString("WITH\n")
			buf.WriteString("```\n")
			buf.WriteString(b.Replacement + "\n")
			buf.WriteString("```\n\n")
		case DeleteFile:
			fmt.Fprintf(buf, "### DELETE FILE: %s\n\n", b.Path)
		case DeleteDirectory:
			fmt.Fprintf(buf, "### DELETE DIRECTORY: %s\n\n", b.Path)
		case Appendix:
			buf.WriteString(trimTrailing(b.Text) + "\n\n")
		case FileTree:
			buf.WriteString("---\n\n**File Tree:**\n\n")
			buf.WriteString("```\n")
			buf.WriteString(b.Text)
			buf.WriteString("\n```\n\n")
		case Summary:
			// The token estimate covers everything rendered so far, so a
			// previously generated summary never inflates the next one.
			tokens := EstimateTokens(buf.String())
			buf.WriteString("---\n\n**Summary:**\n")
			fmt.Fprintf(buf, "* Files included in context content: %d\n", b.Stats.FilesIncluded)
			fmt.Fprintf(buf, "* Items skipped during content generation (dirs, non-matching files, binaries): %d\n", b.Stats.ItemsSkipped)
			fmt.Fprintf(buf, "* Estimated token count (approx): %d\n", tokens)
			if len(b.Stats.ReadErrors) > 0 {
				fmt.Fprintf(buf, "* Read errors (%d): %s\n", len(b.Stats.ReadErrors), strings.Join(b.Stats.ReadErrors, ", "))
			}
		case FormattingInstructions:
			buf.WriteString(formattingInstructions)
		}
	}
}

func trimTrailing(s string) string {
	return strings.TrimRight(s, " \t\r\n\v\f")
}

// formattingInstructions is the protocol documentation appended when the
// formattinginstructions option is enabled. The wording doubles as the
// grammar reference for anyone producing documents by hand.
var formattingInstructions = strings.Join([]string{
	"",
	"---",
	"",
	"## FORMATTING INSTRUCTIONS",
	"Produce a plain text document with these rules:",
	"1. Preamble (optional):",
	"   Add preamble text or content from a file at the top, if needed.",
	"   Use {filename} blocks to include file content inline.",
	"2. Files:",
	"   For each included file, use this format:",
	"   \"### FILE: <relative/path>\"",
	"```",
	"   (file content goes here)",
	"   \"```\"",
	"   Use project-root-relative paths with forward slashes. The code block should immediately follow the header. The end of the file is marked by the closing of the code block.",
	"3. Directories:",
	"   For selected subdirectories, start a section with:",
	"   \"## DIRECTORYSECTION <relative/path>\"",
	"   Recursively include subdirectory content as above.",
	"4. Removals:",
	"   To remove items, use these formats. They should appear on their own without a following code block.",
	"   - \"### DELETE FILE: <relative/path>\": Permanently deletes the specified file.",
	"   - \"### DELETE DIRECTORY: <relative/path>\": Permanently deletes the specified directory, but only if it is empty.",
	"5. File Lists (optional):",
	"   Include lists showing:",
	"   * Included Files in Context",
	"   * Excluded/Skipped Items",
	"6. Appendix (optional):",
	"   Add appendix text or file content at the end if needed.",
	"   Use {filename} blocks to include file content inline.",
	"7. In-place replacements (optional):",
	"   Add literal text replacements to existing files using this format:",
	"   \"### REPLACE IN: <relative/path>\"",
	"   \"```\"",
	"   (text to find, matched literally)",
	"   \"```\"",
	"   \"WITH\"",
	"   \"```\"",
	"   (replacement text, inserted literally)",
	"   \"```\"",
	"   Rules and notes:",
	"   - Paths are project-root-relative with forward slashes, identical to file paths elsewhere.",
	"   - The first code block contains the exact search text; the second contains the replacement. No regex or templating; matches and replacements are literal.",
	"   - FILE blocks should be used for whole files, REPLACE IN blocks should be used for small changes in a small section of a large file. Avoid using REPLACE IN with large blocks of code.",
	"   - Indentation should be preserved exactly in REPLACE IN blocks.",
	"   - The separator line must be WITH on its own line; case-insensitive is allowed.",
	"   - The opening code fence must immediately follow the REPLACE IN header; closing fences mark the end of each block.",
	"   - Multiple REPLACE IN blocks may be provided and are applied in document order for the same file.",
	"   - Non-breaking spaces are treated as regular spaces inside code blocks.",
	"   - If a target file does not exist, the replacement block may be ignored or reported by downstream tools according to their settings.",
	"   - If overwrite protections are enabled downstream, replacements for existing files may be skipped according to those settings.",
	"",
}, "\n")
