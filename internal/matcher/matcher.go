// Package matcher decides which filesystem entries a generate pass may see.
// It is a pure function over the rule set: nothing here touches the disk
// except the gitignore loader.
package matcher

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// silentDirNames vanish entirely from every listing and report.
var silentDirNames = map[string]struct{}{
	".git":        {},
	"__pycache__": {},
	"temp":        {},
	".venv":       {},
	"venv":        {},
}

// Decision is the outcome of matching one path against the rule set.
type Decision int

const (
	// Included is the default: the entry is visible and reportable.
	Included Decision = iota
	// Silent entries vanish entirely and never appear in any report list.
	Silent
	// ForceIncluded entries were explicitly included, overriding excludes
	// and gitignore.
	ForceIncluded
	// Excluded entries matched the explicit exclude list.
	Excluded
	// IgnoreMatched entries matched a gitignore pattern.
	IgnoreMatched
)

// RuleSet holds everything needed to classify a candidate path.
type RuleSet struct {
	// ToolName is the running tool's own file name, hidden from output.
	ToolName string
	// ConfigName is the active config file's name, hidden from output.
	ConfigName string
	// Include force-includes entries by bare name or root-relative path.
	Include []string
	// Exclude excludes entries by bare name or root-relative path.
	Exclude []string
	// Gitignore is the compiled root .gitignore, or nil.
	Gitignore *ignore.GitIgnore
}

// LoadGitignore compiles the .gitignore at root, if present. A missing or
// unreadable file yields a nil matcher.
func LoadGitignore(root string) *ignore.GitIgnore {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

// Decide classifies one entry. relPath is the forward-slash root-relative
// path, name its base name.
func (r *RuleSet) Decide(relPath, name string, isDir bool) Decision {
	if r.SilentlyExcluded(name, isDir) {
		return Silent
	}
	if r.explicitlyIncluded(relPath, name) {
		return ForceIncluded
	}
	if matchesList(r.Exclude, relPath, name) {
		return Excluded
	}
	if r.Gitignore != nil && r.Gitignore.MatchesPath(relPath) {
		if isDir && r.includeLivesUnder(relPath) {
			// An explicitly included descendant keeps the directory
			// reachable; everything beneath stays subject to the rules.
			return Included
		}
		return IgnoreMatched
	}
	return Included
}

// IsExcluded reports whether the entry is hidden from the generated tree.
func (r *RuleSet) IsExcluded(relPath, name string, isDir bool) bool {
	switch r.Decide(relPath, name, isDir) {
	case Excluded, IgnoreMatched:
		return true
	default:
		return false
	}
}

// SilentlyExcluded reports entries that vanish without being counted:
// version-control and cache directories, dot-prefixed entries, the tool
// itself and its config file.
func (r *RuleSet) SilentlyExcluded(name string, isDir bool) bool {
	if r.ToolName != "" && name == r.ToolName {
		return true
	}
	if r.ConfigName != "" && name == r.ConfigName {
		return true
	}
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	if isDir {
		if _, ok := silentDirNames[name]; ok {
			return true
		}
		if strings.HasPrefix(name, "~") {
			return true
		}
	}
	return false
}

// IncludeInContent is the narrower content gate: a tree-visible file still
// needs an allow-listed extension or an explicit include before its content
// is embedded. fileTypes carries dot-prefixed extensions; nil means no
// allow-list is configured.
func (r *RuleSet) IncludeInContent(relPath, name string, fileTypes []string) bool {
	if len(fileTypes) == 0 {
		if len(r.Include) == 0 {
			return true
		}
		return r.explicitlyIncluded(relPath, name)
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range fileTypes {
		if ext == allowed {
			return true
		}
	}
	return r.explicitlyIncluded(relPath, name)
}

func (r *RuleSet) explicitlyIncluded(relPath, name string) bool {
	return matchesList(r.Include, relPath, name)
}

// matchesList applies the original matching rule: entries containing a
// slash compare against the normalized root-relative path, bare names
// against the base name.
func matchesList(items []string, relPath, name string) bool {
	for _, item := range items {
		norm := strings.ReplaceAll(strings.TrimSpace(item), "\\", "/")
		if strings.Contains(norm, "/") {
			if relPath == norm || relPath == strings.TrimPrefix(norm, "./") {
				return true
			}
		} else if name == norm {
			return true
		}
	}
	return false
}

// includeLivesUnder reports whether any explicitly included path sits
// inside the given directory.
func (r *RuleSet) includeLivesUnder(dirRel string) bool {
	prefix := ""
	if dirRel != "." && dirRel != "" {
		prefix = dirRel + "/"
	}
	for _, item := range r.Include {
		norm := strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(item), "\\", "/"), "./")
		if prefix == "" || strings.HasPrefix(norm, prefix) {
			return true
		}
	}
	return false
}
