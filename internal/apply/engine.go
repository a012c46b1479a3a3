// Package apply interprets a parsed instruction list against the output
// root, producing a Report of every effect. Removal instructions are
// staged and only executed through an explicit second phase, so a host can
// confirm them first.
package apply

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog/log"

	"ctxit/internal/document"
	"ctxit/internal/parser"
)

// Options control one apply pass.
type Options struct {
	// Overwrite permits rewriting files that already exist.
	Overwrite bool
	// DryRun routes every write into the virtual overlay instead of disk.
	DryRun bool
	// TabWidth expands tabs to N spaces during normalization when positive.
	TabWidth int
}

// Engine executes one apply pass. It is single-use and not safe for
// concurrent access: create one per call.
type Engine struct {
	root string
	opts Options

	rep *reportBuilder

	// overlay stands in for the filesystem during a dry run so sequential
	// edits to the same path compose.
	overlay map[string]string
	// baseline caches each path's first-seen content; every diff for the
	// path compares against it (cumulative, not per-block).
	baseline map[string]string

	pendingFiles []string
	pendingDirs  []string
}

// New prepares an engine rooted at outputRoot. An unresolvable root is the
// only fatal error.
func New(outputRoot string, opts Options) (*Engine, error) {
	abs, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid output root %q: %w", outputRoot, err)
	}
	return &Engine{
		root:     abs,
		opts:     opts,
		rep:      newReportBuilder(),
		overlay:  make(map[string]string),
		baseline: make(map[string]string),
	}, nil
}

// Run interprets every instruction in order. Errors are accumulated into
// the report; nothing aborts the pass.
func (e *Engine) Run(instructions []parser.Instruction) {
	for _, ins := range instructions {
		switch ins := ins.(type) {
		case parser.FileBlock:
			e.createFile(ins)
		case parser.ReplaceBlock:
			e.applyReplacement(ins)
		case parser.DeleteFile:
			if rel, ok := e.resolve(ins.Path); ok {
				e.pendingFiles = append(e.pendingFiles, rel)
			}
		case parser.DeleteDirectory:
			if rel, ok := e.resolve(ins.Path); ok {
				e.pendingDirs = append(e.pendingDirs, rel)
			}
		}
	}
}

// RecordErrors merges externally collected errors (typically the parse
// pass) into the report.
func (e *Engine) RecordErrors(errs []string) {
	e.rep.errors = append(e.rep.errors, errs...)
}

// PendingRemovals lists the staged removals in document order.
func (e *Engine) PendingRemovals() (files, dirs []string) {
	return append([]string(nil), e.pendingFiles...), append([]string(nil), e.pendingDirs...)
}

// ExecuteRemovals runs the staged removals. Callers invoke it only after
// whatever confirmation step they need; nothing here asks.
func (e *Engine) ExecuteRemovals() {
	for _, rel := range e.pendingFiles {
		e.removeFile(rel)
	}
	for _, rel := range e.pendingDirs {
		e.removeDirectory(rel)
	}
}

// Report finalizes and returns the pass results.
func (e *Engine) Report() *Report {
	return e.rep.build()
}

// resolve joins a document path onto the output root and rejects paths
// that would escape it. The returned value is the cleaned relative path.
func (e *Engine) resolve(docPath string) (string, bool) {
	joined := e.root
	for _, part := range strings.Split(docPath, "/") {
		joined = filepath.Join(joined, part)
	}
	rel, err := filepath.Rel(e.root, filepath.Clean(joined))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		e.errorf("Refusing path outside output root: '%s'", docPath)
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (e *Engine) absPath(rel string) string {
	return filepath.Join(e.root, filepath.FromSlash(rel))
}

func (e *Engine) createFile(ins parser.FileBlock) {
	rel, ok := e.resolve(ins.Path)
	if !ok {
		return
	}
	abs := e.absPath(rel)
	content := document.Normalize(ins.Content, e.opts.TabWidth)

	current, existed := e.currentContent(rel)
	if existed {
		if !e.opts.Overwrite {
			e.rep.markSkipped(rel)
			log.Info().Str("file", rel).Bool("dry_run", e.opts.DryRun).Msg("skipped existing file")
			return
		}
		e.captureBaseline(rel, current)
		e.recordDiff(rel, content)
		if err := e.writeFile(rel, abs, content); err != nil {
			e.errorf("Error overwriting file '%s': %v", abs, err)
			return
		}
		e.rep.markOverwritten(rel)
		log.Info().Str("file", rel).Bool("dry_run", e.opts.DryRun).Msg("overwrote file")
		return
	}

	e.captureBaseline(rel, "")
	e.recordDiff(rel, content)
	if err := e.writeFile(rel, abs, content); err != nil {
		e.errorf("Error creating file '%s': %v", abs, err)
		return
	}
	e.rep.markCreated(rel)
	log.Info().Str("file", rel).Bool("dry_run", e.opts.DryRun).Msg("created file")
}

func (e *Engine) applyReplacement(ins parser.ReplaceBlock) {
	rel, ok := e.resolve(ins.Path)
	if !ok {
		return
	}
	abs := e.absPath(rel)

	search := document.Normalize(ins.Search, e.opts.TabWidth)
	replacement := document.Normalize(ins.Replacement, e.opts.TabWidth)

	current, found := e.currentContent(rel)
	if !found {
		e.errorf("Replacement target not found: '%s'", rel)
		return
	}
	e.captureBaseline(rel, current)

	// The target content gets the same normalization as the search text,
	// so an NBSP in the document matches a plain space on disk.
	normalized := document.Normalize(current, e.opts.TabWidth)
	updated := strings.ReplaceAll(normalized, search, replacement)
	if updated == normalized {
		e.rep.markSkipped(rel)
		log.Info().Str("file", rel).Msg("no occurrences to replace")
		return
	}

	// The diff is recorded even when overwrite protection discards the
	// edit: the report should show what the document wanted to change.
	e.recordDiff(rel, updated)

	existsOnDisk := fileExists(abs)
	if existsOnDisk && !e.opts.Overwrite {
		e.rep.markSkipped(rel)
		log.Info().Str("file", rel).Msg("skipped replacement (overwrite disabled)")
		return
	}

	if err := e.writeFile(rel, abs, updated); err != nil {
		e.errorf("Error writing replacement to '%s': %v", abs, err)
		return
	}
	if existsOnDisk {
		e.rep.markOverwritten(rel)
		log.Info().Str("file", rel).Bool("dry_run", e.opts.DryRun).Msg("applied replacement")
	} else {
		e.rep.markCreated(rel)
		log.Info().Str("file", rel).Bool("dry_run", e.opts.DryRun).Msg("applied replacement to new file")
	}
}

// currentContent resolves a path's content, preferring the overlay so
// dry-run edits compose, then the real file.
func (e *Engine) currentContent(rel string) (string, bool) {
	if content, ok := e.overlay[rel]; ok {
		return content, true
	}
	abs := e.absPath(rel)
	if !fileExists(abs) {
		return "", false
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		e.errorf("Error reading file '%s': %v", abs, err)
		return "", true
	}
	return string(data), true
}

func (e *Engine) captureBaseline(rel, content string) {
	if _, ok := e.baseline[rel]; !ok {
		e.baseline[rel] = content
	}
}

// recordDiff stores the unified diff of the path's first-seen baseline
// against the proposed content. A later block touching the same path
// replaces the entry, keeping one cumulative diff per path.
func (e *Engine) recordDiff(rel, proposed string) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        diffLines(e.baseline[rel]),
		B:        diffLines(proposed),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  3,
	})
	if err != nil {
		e.errorf("Error diffing '%s': %v", rel, err)
		return
	}
	if diff != "" {
		e.rep.diffs[rel] = diff
	}
}

// writeFile lands content in the overlay during a dry run, on disk
// otherwise, creating the parent directory as needed.
func (e *Engine) writeFile(rel, abs, content string) error {
	e.ensureDir(filepath.Dir(abs))
	if e.opts.DryRun {
		e.overlay[rel] = content
		return nil
	}
	return os.WriteFile(abs, []byte(content), 0o644)
}

// ensureDir records and (outside dry runs) creates a missing parent
// directory.
func (e *Engine) ensureDir(dir string) {
	if _, err := os.Stat(dir); err == nil {
		return
	}
	if rel, err := filepath.Rel(e.root, dir); err == nil {
		rel = filepath.ToSlash(rel)
		if rel != "." {
			e.rep.dirsCreated[rel] = struct{}{}
		}
	}
	if !e.opts.DryRun {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			e.errorf("Error creating directory '%s': %v", dir, err)
			return
		}
	}
	log.Info().Str("dir", dir).Bool("dry_run", e.opts.DryRun).Msg("created directory")
}

func (e *Engine) removeFile(rel string) {
	abs := e.absPath(rel)
	if !fileExists(abs) {
		log.Info().Str("file", rel).Msg("skipped removing non-existent file")
		return
	}
	if !e.opts.DryRun {
		if err := os.Remove(abs); err != nil {
			e.errorf("Error removing file '%s': %v", abs, err)
			return
		}
	}
	e.rep.filesRemoved[rel] = struct{}{}
	log.Info().Str("file", rel).Bool("dry_run", e.opts.DryRun).Msg("removed file")
}

func (e *Engine) removeDirectory(rel string) {
	abs := e.absPath(rel)
	info, err := os.Stat(abs)
	if err != nil {
		log.Info().Str("dir", rel).Msg("skipped removing non-existent directory")
		return
	}
	if !info.IsDir() {
		e.errorf("Cannot remove '%s': It is not a directory.", abs)
		return
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		e.errorf("Error removing directory '%s': %v", abs, err)
		return
	}
	if len(entries) > 0 {
		e.rep.dirsSkippedRemoval[rel] = struct{}{}
		log.Info().Str("dir", rel).Msg("skipped removing non-empty directory")
		return
	}
	if !e.opts.DryRun {
		if err := os.Remove(abs); err != nil {
			e.errorf("Error removing directory '%s': %v", abs, err)
			return
		}
	}
	e.rep.dirsRemoved[rel] = struct{}{}
	log.Info().Str("dir", rel).Bool("dry_run", e.opts.DryRun).Msg("removed empty directory")
}

func (e *Engine) errorf(format string, args ...any) {
	e.rep.errors = append(e.rep.errors, fmt.Sprintf(format, args...))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// diffLines splits content for diffing. Empty content maps to no lines,
// so a brand-new file diffs as pure additions.
func diffLines(s string) []string {
	if s == "" {
		return nil
	}
	return difflib.SplitLines(s)
}
