// Package parser turns raw context document text into an ordered
// instruction list. It is a line-oriented state machine; markdown
// rendering quirks (emphasis around markers, flexible heading levels) are
// tolerated, fences are matched literally.
package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Instruction is one filesystem mutation reconstructed from a document.
// The concrete types below form a closed set.
type Instruction interface {
	isInstruction()
}

// FileBlock creates or overwrites a whole file.
type FileBlock struct {
	Path    string
	Content string
}

// ReplaceBlock applies a literal search/replace to an existing file.
type ReplaceBlock struct {
	Path        string
	Search      string
	Replacement string
}

// DeleteFile stages a file removal.
type DeleteFile struct {
	Path string
}

// DeleteDirectory stages a directory removal.
type DeleteDirectory struct {
	Path string
}

func (FileBlock) isInstruction()       {}
func (ReplaceBlock) isInstruction()    {}
func (DeleteFile) isInstruction()      {}
func (DeleteDirectory) isInstruction() {}

// Result is the outcome of one parse pass. Structural errors are
// accumulated, never fatal; whatever parsed cleanly is still returned in
// document order.
type Result struct {
	Instructions []Instruction
	Errors       []string
}

const (
	fence3 = "```"
	fence4 = "````"

	// summarySentinel starts the trailing summary block a previous
	// generate pass appended. Everything from its last occurrence on is
	// discarded so the summary is never reparsed as content.
	summarySentinel = "\n---\n\n**Summary:**"
)

var (
	filePattern       = regexp.MustCompile(`^#+\s+FILE:\s*(.+)`)
	replacePattern    = regexp.MustCompile(`^#+\s+REPLACE IN:\s*(.+)`)
	deleteFilePattern = regexp.MustCompile(`^#+\s+DELETE FILE:\s*(.+)`)
	deleteDirPattern  = regexp.MustCompile(`^#+\s+DELETE DIRECTORY:\s*(.+)`)
)

type markerKind int

const (
	noMarker markerKind = iota
	fileMarker
	replaceMarker
	deleteFileMarker
	deleteDirMarker
)

// Parse reads the document text and reconstructs the instruction list.
func Parse(text string) *Result {
	if pos := strings.LastIndex(text, summarySentinel); pos != -1 {
		text = text[:pos]
	}

	p := &parser{lines: splitLines(text), res: &Result{}}
	p.run()
	return p.res
}

type parser struct {
	lines []string
	idx   int
	res   *Result
}

func (p *parser) run() {
	for p.idx < len(p.lines) {
		kind, path := marker(p.lines[p.idx])
		switch kind {
		case fileMarker:
			p.idx++
			p.parseFile(path)
		case replaceMarker:
			p.idx++
			p.parseReplace(path)
		case deleteFileMarker:
			p.res.Instructions = append(p.res.Instructions, DeleteFile{Path: path})
			p.idx++
		case deleteDirMarker:
			p.res.Instructions = append(p.res.Instructions, DeleteDirectory{Path: path})
			p.idx++
		default:
			p.idx++
		}
	}
}

// parseFile consumes one FILE block body. A missing opening fence records
// an error and resumes at the next marker; a missing closing fence records
// an error but still emits the file with everything collected.
func (p *parser) parseFile(path string) {
	if !p.seekOpeningFence(nil) {
		p.errorf("Expected code block start fence for file '%s'.", path)
		return
	}
	p.idx++

	content, closed := p.collectUntilClosingFence()
	if !closed {
		p.errorf("Missing closing code block fence for file '%s'.", path)
	} else {
		p.idx++
	}

	p.res.Instructions = append(p.res.Instructions, FileBlock{
		Path:    path,
		Content: content,
	})
}

// parseReplace consumes search fence, WITH separator and replacement
// fence. Any structural deviation records an error, discards the block and
// resumes scanning at the offending line.
func (p *parser) parseReplace(path string) {
	onSkipped := func(line string) {
		if strings.EqualFold(strings.TrimSpace(line), "WITH") {
			p.errorf("Unexpected 'WITH' before search text code block for '%s'.", path)
		}
	}
	if !p.seekOpeningFence(onSkipped) {
		p.errorf("Expected code block start fence for replacement search text in '%s'.", path)
		return
	}
	p.idx++

	search, closed := p.collectUntilClosingFence()
	if !closed {
		p.errorf("Missing closing code block fence for replacement search text in '%s'.", path)
		return
	}
	p.idx++

	for p.idx < len(p.lines) && strings.TrimSpace(p.lines[p.idx]) == "" {
		p.idx++
	}
	if p.idx >= len(p.lines) || !strings.EqualFold(strings.TrimSpace(p.lines[p.idx]), "WITH") {
		p.errorf("Expected 'WITH' separator for replacement in '%s'.", path)
		return
	}
	p.idx++

	sawContent := false
	if !p.seekOpeningFence(func(line string) {
		if strings.TrimSpace(line) != "" && !sawContent {
			sawContent = true
			p.errorf("Expected code block start fence for replacement text in '%s', found unexpected content.", path)
		}
	}) {
		p.errorf("Expected code block start fence for replacement text in '%s'.", path)
		return
	}
	p.idx++

	replacement, closed := p.collectUntilClosingFence()
	if !closed {
		p.errorf("Missing closing code block fence for replacement text in '%s'.", path)
		return
	}
	p.idx++

	p.res.Instructions = append(p.res.Instructions, ReplaceBlock{
		Path:        path,
		Search:      search,
		Replacement: replacement,
	})
}

// seekOpeningFence advances to the next line starting with a 3-backtick
// fence. The scan stops at the next marker line instead of consuming the
// rest of the document, so error recovery always resumes there. onSkipped,
// when non-nil, observes every skipped line.
func (p *parser) seekOpeningFence(onSkipped func(string)) bool {
	for p.idx < len(p.lines) {
		line := p.lines[p.idx]
		if strings.HasPrefix(strings.TrimSpace(line), fence3) {
			return true
		}
		if kind, _ := marker(line); kind != noMarker {
			return false
		}
		if onSkipped != nil {
			onSkipped(line)
		}
		p.idx++
	}
	return false
}

// collectUntilClosingFence gathers body lines verbatim until a line whose
// entire trimmed content is a 3- or 4-backtick fence. The 4-backtick
// closer lets bodies safely contain literal 3-backtick sequences. On
// return the index points at the closing fence, or past the end when the
// fence was missing (closed == false).
func (p *parser) collectUntilClosingFence() (string, bool) {
	var body []string
	for p.idx < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.idx])
		if trimmed == fence3 || trimmed == fence4 {
			return strings.Join(body, "\n"), true
		}
		body = append(body, p.lines[p.idx])
		p.idx++
	}
	return strings.Join(body, "\n"), false
}

func (p *parser) errorf(format string, args ...any) {
	p.res.Errors = append(p.res.Errors, fmt.Sprintf(format, args...))
}

// marker classifies one raw line. Emphasis asterisks are stripped before
// matching so bolded headers still register.
func marker(line string) (markerKind, string) {
	stripped := strings.TrimSpace(strings.ReplaceAll(line, "*", ""))

	for _, m := range []struct {
		kind    markerKind
		pattern *regexp.Regexp
	}{
		{fileMarker, filePattern},
		{replaceMarker, replacePattern},
		{deleteFileMarker, deleteFilePattern},
		{deleteDirMarker, deleteDirPattern},
	} {
		if match := m.pattern.FindStringSubmatch(stripped); match != nil {
			return m.kind, cleanPath(match[1])
		}
	}
	return noMarker, ""
}

// cleanPath strips surrounding quoting characters and embedded
// backslashes from a marker's path value.
func cleanPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[0] == s[len(s)-1] {
		switch s[0] {
		case '"', '\'', '`':
			s = s[1 : len(s)-1]
		}
	}
	return strings.ReplaceAll(s, "\\", "")
}

// splitLines matches the generator's line discipline: a bare \n split with
// stray carriage returns removed.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
