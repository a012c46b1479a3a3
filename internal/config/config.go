package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	// DefaultFileName is the config file looked up next to the scanned root.
	DefaultFileName = ".context"
	// DefaultOutputFile receives the rendered document.
	DefaultOutputFile = "context.md"
)

// alwaysExcluded are reported as excluded even without any configuration.
var alwaysExcluded = []string{".gitignore", ".context", ".ktrsettings"}

// Config holds every knob the generate pass understands. A zero value is
// not usable; start from Default.
type Config struct {
	// FileTypes is the extension allow-list (".go", ".md"). Nil means no
	// allow-list is configured.
	FileTypes []string
	// ExcludedFiles are names or root-relative paths excluded from output.
	ExcludedFiles []string
	// Include force-includes names or root-relative paths, overriding
	// excludes and gitignore.
	Include []string
	// OutputFile is the document file name written into the root.
	OutputFile string
	// Subdirectories selects recursion: "#NONE", "#ALL" or an explicit
	// comma/newline separated list of directory names.
	Subdirectories string

	Preamble               string
	Appendix               string
	Summary                bool
	FileTree               bool
	FormattingInstructions bool
	IncludePreamble        bool
	IncludeAppendix        bool
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		ExcludedFiles:   append([]string(nil), alwaysExcluded...),
		OutputFile:      DefaultOutputFile,
		Subdirectories:  "#NONE",
		Summary:         true,
		IncludePreamble: true,
		IncludeAppendix: true,
	}
}

// Load reads a config file from dir and overlays it onto the defaults.
// The section argument picks a named section; when empty or absent the
// first section in the file is used, falling back to DEFAULT. The second
// return value reports whether the file existed and parsed.
func Load(dir, filename, section string) (Config, bool, error) {
	cfg := Default()
	path := filepath.Join(dir, filename)

	// Inline comment parsing must stay off: the subdirectories value uses
	// "#ALL" and "#NONE" literally.
	f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true, IgnoreInlineComment: true}, path)
	if err != nil {
		// A missing file is not an error; the defaults apply.
		return cfg, false, nil
	}

	sec := pickSection(f, section)
	if sec == nil {
		return cfg, true, nil
	}

	if v := sec.Key("filetypes").String(); v != "" {
		cfg.FileTypes = parseExtensions(v)
	}
	if v := sec.Key("excludedfiles").String(); v != "" {
		cfg.ExcludedFiles = append(append([]string(nil), alwaysExcluded...), splitList(v)...)
	}
	if v := sec.Key("outputfile").String(); v != "" {
		cfg.OutputFile = strings.TrimSpace(v)
	}
	if v := sec.Key("subdirectories").String(); v != "" {
		cfg.Subdirectories = strings.TrimSpace(v)
	}
	if v := sec.Key("preamble").String(); v != "" {
		cfg.Preamble = v
	}
	if v := sec.Key("appendix").String(); v != "" {
		cfg.Appendix = v
	}
	if v := sec.Key("include").String(); v != "" {
		cfg.Include = splitList(v)
	}
	if v := sec.Key("summary").String(); v != "" {
		cfg.Summary = sec.Key("summary").MustBool(true)
	}
	if v := sec.Key("filetree").String(); v != "" {
		cfg.FileTree = sec.Key("filetree").MustBool(false)
	}
	if v := sec.Key("formattinginstructions").String(); v != "" {
		cfg.FormattingInstructions = sec.Key("formattinginstructions").MustBool(false)
	}
	if v := sec.Key("includepreamble").String(); v != "" {
		cfg.IncludePreamble = sec.Key("includepreamble").MustBool(true)
	}
	if v := sec.Key("includeappendix").String(); v != "" {
		cfg.IncludeAppendix = sec.Key("includeappendix").MustBool(true)
	}

	return cfg, true, nil
}

// pickSection resolves the section lookup order: the requested section,
// then the first named section, then DEFAULT.
func pickSection(f *ini.File, requested string) *ini.Section {
	if requested != "" {
		if sec, err := f.GetSection(requested); err == nil {
			return sec
		}
	}
	for _, name := range f.SectionStrings() {
		if name != ini.DefaultSection {
			return f.Section(name)
		}
	}
	return f.Section(ini.DefaultSection)
}

// parseExtensions normalizes "py, .js,go" into [".py", ".js", ".go"].
func parseExtensions(v string) []string {
	var exts []string
	for _, e := range splitList(v) {
		e = strings.TrimLeft(e, ".")
		if e != "" {
			exts = append(exts, "."+e)
		}
	}
	return exts
}

// splitList splits a comma or newline separated config value.
func splitList(v string) []string {
	var items []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '\n' }) {
		if s := strings.TrimSpace(part); s != "" {
			items = append(items, s)
		}
	}
	return items
}

// Merge combines a subdirectory's own configuration with the context
// inherited from its parent: extension, exclude and include sets take the
// union, while recursion and summary settings always follow the parent.
func Merge(parent, child Config) Config {
	merged := child
	merged.Subdirectories = parent.Subdirectories
	merged.Summary = parent.Summary
	if len(parent.FileTypes) > 0 {
		merged.FileTypes = unionKeepOrder(parent.FileTypes, child.FileTypes)
	}
	merged.ExcludedFiles = unionKeepOrder(child.ExcludedFiles, parent.ExcludedFiles)
	merged.Include = unionKeepOrder(child.Include, parent.Include)
	return merged
}

func unionKeepOrder(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// String implements fmt.Stringer for debug logging.
func (c Config) String() string {
	return fmt.Sprintf("config{filetypes=%v output=%q subdirs=%q include=%v}",
		c.FileTypes, c.OutputFile, c.Subdirectories, c.Include)
}
