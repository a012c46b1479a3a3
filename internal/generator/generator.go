// Package generator walks a directory tree and serializes the selected
// subtree into a context document.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"ctxit/internal/config"
	"ctxit/internal/document"
	"ctxit/internal/matcher"
)

// Options tune one generate pass.
type Options struct {
	// ToolName is hidden from all listings (the running binary's name).
	ToolName string
	// ConfigName is the active config file name, also hidden.
	ConfigName string
	// TabWidth expands tabs to N spaces in embedded content when positive.
	TabWidth int
	// Section is the config section that was selected at the root; child
	// directories always load their own default section.
	Section string
}

// Result is everything one generate pass produces.
type Result struct {
	Doc              document.Document
	Stats            document.Stats
	IncludedOverview []string
	SkippedOverview  []string
	OutputFile       string
}

// context carries the merged, immutable settings for one directory level.
// Child levels get a fresh value; nothing is mutated sideways.
type context struct {
	root  string
	dir   string
	cfg   config.Config
	rules *matcher.RuleSet
	opts  Options
	depth int
}

// Generate scans root with the given configuration and returns the
// document plus overview lists and statistics. Only pre-flight failures
// (root unreadable or not a directory) return an error.
func Generate(root string, cfg config.Config, opts Options) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("reading root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", root)
	}

	ctx := context{
		root: absRoot,
		dir:  absRoot,
		cfg:  cfg,
		rules: &matcher.RuleSet{
			ToolName:   opts.ToolName,
			ConfigName: opts.ConfigName,
			Include:    cfg.Include,
			Exclude:    cfg.ExcludedFiles,
			Gitignore:  matcher.LoadGitignore(absRoot),
		},
		opts: opts,
	}

	res := &Result{OutputFile: cfg.OutputFile}

	var doc document.Document
	if cfg.Preamble != "" && cfg.IncludePreamble {
		doc.Append(document.Preamble{Text: ctx.interpolateFiles(cfg.Preamble)})
	}

	body, stats := walk(ctx)
	doc.Append(body.Blocks...)
	res.Stats = stats

	if cfg.Appendix != "" && cfg.IncludeAppendix {
		doc.Append(document.Appendix{Text: ctx.interpolateFiles(cfg.Appendix)})
	}
	if cfg.FileTree {
		doc.Append(document.FileTree{Text: renderTree(ctx)})
	}
	if cfg.Summary {
		doc.Append(document.Summary{Stats: stats})
	}
	if cfg.FormattingInstructions {
		doc.Append(document.FormattingInstructions{})
	}
	res.Doc = doc

	res.IncludedOverview, res.SkippedOverview = overviewLists(ctx)
	return res, nil
}

// Write renders the result and writes it to the output file inside root.
// It returns the written path.
func (r *Result) Write(root string) (string, error) {
	text := document.Format(r.Doc)
	r.Stats.EstimatedTokens = document.EstimateTokens(text)
	path := filepath.Join(root, r.OutputFile)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("writing context file: %w", err)
	}
	return path, nil
}

// Render returns the document text and records the final token estimate.
func (r *Result) Render() string {
	text := document.Format(r.Doc)
	r.Stats.EstimatedTokens = document.EstimateTokens(text)
	return text
}

// walk produces the per-entry blocks for one directory level.
func walk(ctx context) (document.Document, document.Stats) {
	var doc document.Document
	var stats document.Stats

	entries := visibleEntries(ctx)

	var files, dirs []os.DirEntry
	for _, e := range entries {
		if e.Name() == ctx.cfg.OutputFile {
			continue
		}
		rel := ctx.relPath(filepath.Join(ctx.dir, e.Name()))
		if ctx.rules.IsExcluded(rel, e.Name(), e.IsDir()) {
			stats.ItemsSkipped++
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e)
		} else if e.Type().IsRegular() {
			files = append(files, e)
		} else {
			stats.ItemsSkipped++
		}
	}

	for _, e := range files {
		path := filepath.Join(ctx.dir, e.Name())
		rel := ctx.relPath(path)
		if isBinaryFile(path) {
			log.Debug().Str("file", rel).Msg("skipping binary file")
			stats.ItemsSkipped++
			continue
		}
		if !ctx.rules.IncludeInContent(rel, e.Name(), ctx.cfg.FileTypes) {
			stats.ItemsSkipped++
			continue
		}
		log.Debug().Str("file", rel).Msg("including file content")
		stats.FilesIncluded++

		content, err := os.ReadFile(path)
		body := string(content)
		if err != nil {
			stats.ReadErrors = append(stats.ReadErrors, e.Name())
			body = fmt.Sprintf("--- Error reading %s: %v ---", e.Name(), err)
		}
		doc.Append(document.FileBlock{
			Path:    rel,
			Content: document.Normalize(body, ctx.opts.TabWidth),
		})
	}

	for _, e := range dirs {
		path := filepath.Join(ctx.dir, e.Name())
		if !subdirSelected(ctx.cfg.Subdirectories, e.Name()) {
			stats.ItemsSkipped++
			continue
		}
		log.Debug().Str("dir", ctx.relPath(path)).Int("depth", ctx.depth+1).Msg("descending into subdirectory")

		childDoc, childStats := walk(childContext(ctx, path))
		stats.ItemsSkipped += childStats.ItemsSkipped
		stats.ReadErrors = append(stats.ReadErrors, childStats.ReadErrors...)
		if childStats.FilesIncluded > 0 {
			stats.FilesIncluded += childStats.FilesIncluded
			doc.Append(document.DirectorySection{Path: ctx.relPath(path), Children: childDoc})
		}
	}

	return doc, stats
}

// childContext loads the subdirectory's own config and merges it with the
// parent's settings.
func childContext(ctx context, dir string) context {
	childCfg, _, err := config.Load(dir, config.DefaultFileName, "")
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("ignoring unreadable subdirectory config")
		childCfg = config.Default()
	}
	merged := config.Merge(ctx.cfg, childCfg)

	return context{
		root: ctx.root,
		dir:  dir,
		cfg:  merged,
		rules: &matcher.RuleSet{
			ToolName:   ctx.rules.ToolName,
			ConfigName: ctx.rules.ConfigName,
			Include:    merged.Include,
			Exclude:    merged.ExcludedFiles,
			Gitignore:  ctx.rules.Gitignore,
		},
		opts:  ctx.opts,
		depth: ctx.depth + 1,
	}
}

// visibleEntries lists a directory minus silent entries, directories
// first, case-insensitive by name.
func visibleEntries(ctx context) []os.DirEntry {
	raw, err := os.ReadDir(ctx.dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", ctx.dir).Msg("cannot list directory")
		return nil
	}
	var entries []os.DirEntry
	for _, e := range raw {
		if ctx.rules.SilentlyExcluded(e.Name(), e.IsDir()) {
			continue
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})
	return entries
}

// relPath converts an absolute path to the forward-slash form relative to
// the scan root.
func (c context) relPath(path string) string {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// subdirSelected resolves the subdirectories option for one directory name.
func subdirSelected(option, name string) bool {
	opt := strings.ToUpper(strings.TrimSpace(option))
	switch opt {
	case "", "#NONE":
		return false
	case "#ALL":
		return true
	}
	for _, part := range strings.FieldsFunc(option, func(r rune) bool { return r == ',' || r == '\n' }) {
		if strings.TrimSpace(part) == name {
			return true
		}
	}
	return false
}

// isBinaryFile sniffs the first kilobyte for NUL bytes.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, 1024)
	n, _ := f.Read(buf)
	for _, b := range buf[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

var fileBlockPattern = regexp.MustCompile(`\{([^}]+)\}`)

// interpolateFiles replaces {filename} markers in preamble/appendix text
// with the named file's content, resolved against the scanned directory
// and then the root.
func (c context) interpolateFiles(text string) string {
	if text == "" {
		return text
	}
	return fileBlockPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := strings.TrimSpace(m[1 : len(m)-1])

		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.dir, name)
			if _, err := os.Stat(path); err != nil {
				path = filepath.Join(c.root, name)
			}
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			log.Debug().Str("name", name).Msg("file block target not found")
			return fmt.Sprintf("[File not found: %s]", name)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Sprintf("[Error reading %s: %v]", name, err)
		}
		log.Debug().Str("name", name).Str("path", path).Msg("expanded file block")
		return strings.TrimRight(string(content), " \t\r\n\v\f")
	})
}

// overviewLists categorizes every reachable file as included or skipped,
// using the root-level rules throughout, for the generation report.
func overviewLists(ctx context) (included, skipped []string) {
	var visit func(dir string)
	visit = func(dir string) {
		sub := ctx
		sub.dir = dir
		for _, e := range visibleEntries(sub) {
			path := filepath.Join(dir, e.Name())
			rel := ctx.relPath(path)

			if e.IsDir() {
				if subdirSelected(ctx.cfg.Subdirectories, e.Name()) {
					visit(path)
				}
				continue
			}
			if e.Name() == ctx.cfg.OutputFile {
				continue
			}
			if ctx.rules.IsExcluded(rel, e.Name(), false) {
				skipped = append(skipped, rel)
				continue
			}
			if isBinaryFile(path) {
				skipped = append(skipped, rel+" (binary)")
				continue
			}
			if ctx.rules.IncludeInContent(rel, e.Name(), ctx.cfg.FileTypes) {
				included = append(included, rel)
			} else {
				skipped = append(skipped, rel)
			}
		}
	}
	visit(ctx.root)
	return included, skipped
}
