package matcher

import (
	"os"
	"path/filepath"
	"testing"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilentlyExcluded(t *testing.T) {
	r := &RuleSet{ToolName: "ctxit", ConfigName: ".context"}

	assert.True(t, r.SilentlyExcluded(".git", true))
	assert.True(t, r.SilentlyExcluded("__pycache__", true))
	assert.True(t, r.SilentlyExcluded("venv", true))
	assert.True(t, r.SilentlyExcluded(".hidden", false))
	assert.True(t, r.SilentlyExcluded("~backup", true))
	assert.True(t, r.SilentlyExcluded("ctxit", false))
	assert.True(t, r.SilentlyExcluded(".context", false))

	assert.False(t, r.SilentlyExcluded("main.go", false))
	assert.False(t, r.SilentlyExcluded("temp", false)) // only silent as a directory
	assert.True(t, r.SilentlyExcluded("temp", true))
	assert.False(t, r.SilentlyExcluded("~tilde-file", false))
}

func TestIncludeOverridesExclude(t *testing.T) {
	r := &RuleSet{
		Include: []string{"a.txt"},
		Exclude: []string{"a.txt"},
	}
	assert.Equal(t, ForceIncluded, r.Decide("a.txt", "a.txt", false))
}

func TestExcludeByNameAndByPath(t *testing.T) {
	r := &RuleSet{Exclude: []string{"secret.txt", "./src/gen.go"}}

	assert.Equal(t, Excluded, r.Decide("secret.txt", "secret.txt", false))
	assert.Equal(t, Excluded, r.Decide("sub/secret.txt", "secret.txt", false))
	assert.Equal(t, Excluded, r.Decide("src/gen.go", "gen.go", false))
	assert.Equal(t, Included, r.Decide("other/gen.go", "gen.go", false))
}

func TestGitignoreMatching(t *testing.T) {
	gi := ignore.CompileIgnoreLines("*.log", "build/")
	r := &RuleSet{Gitignore: gi}

	assert.Equal(t, IgnoreMatched, r.Decide("debug.log", "debug.log", false))
	assert.Equal(t, IgnoreMatched, r.Decide("build/out.txt", "out.txt", false))
	assert.Equal(t, Included, r.Decide("main.go", "main.go", false))
}

func TestIncludeOverridesGitignore(t *testing.T) {
	gi := ignore.CompileIgnoreLines("*.log")
	r := &RuleSet{Gitignore: gi, Include: []string{"keep.log"}}

	assert.Equal(t, ForceIncluded, r.Decide("keep.log", "keep.log", false))
	assert.Equal(t, IgnoreMatched, r.Decide("drop.log", "drop.log", false))
}

func TestIgnoredDirectoryWithIncludedDescendantStaysReachable(t *testing.T) {
	gi := ignore.CompileIgnoreLines("build/")
	r := &RuleSet{Gitignore: gi, Include: []string{"build/keep.txt"}}

	assert.Equal(t, Included, r.Decide("build", "build", true))
	assert.Equal(t, ForceIncluded, r.Decide("build/keep.txt", "keep.txt", false))
	assert.Equal(t, IgnoreMatched, r.Decide("build/other.txt", "other.txt", false))
}

func TestLoadGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.tmp\n"), 0o644))

	gi := LoadGitignore(root)
	require.NotNil(t, gi)
	assert.True(t, gi.MatchesPath("scratch.tmp"))

	assert.Nil(t, LoadGitignore(t.TempDir()))
}

func TestIncludeInContent(t *testing.T) {
	t.Run("no allowlist, no includes: everything passes", func(t *testing.T) {
		r := &RuleSet{}
		assert.True(t, r.IncludeInContent("anything.bin", "anything.bin", nil))
	})

	t.Run("no allowlist, includes present: only explicit entries pass", func(t *testing.T) {
		r := &RuleSet{Include: []string{"notes.txt"}}
		assert.True(t, r.IncludeInContent("notes.txt", "notes.txt", nil))
		assert.False(t, r.IncludeInContent("other.txt", "other.txt", nil))
	})

	t.Run("allowlist gates by extension", func(t *testing.T) {
		r := &RuleSet{}
		types := []string{".go", ".md"}
		assert.True(t, r.IncludeInContent("main.go", "main.go", types))
		assert.True(t, r.IncludeInContent("README.md", "README.md", types))
		assert.False(t, r.IncludeInContent("data.json", "data.json", types))
	})

	t.Run("extension match is case-insensitive", func(t *testing.T) {
		r := &RuleSet{}
		assert.True(t, r.IncludeInContent("MAIN.GO", "MAIN.GO", []string{".go"}))
	})

	t.Run("explicit include bypasses the allowlist", func(t *testing.T) {
		r := &RuleSet{Include: []string{"data.json"}}
		assert.True(t, r.IncludeInContent("data.json", "data.json", []string{".go"}))
	})
}
