package apply

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctxit/internal/parser"
)

func newEngine(t *testing.T, root string, opts Options) *Engine {
	t.Helper()
	e, err := New(root, opts)
	require.NoError(t, err)
	return e
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestCreateFile(t *testing.T) {
	root := t.TempDir()
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{parser.FileBlock{Path: "sub/x.txt", Content: "hello"}})

	rep := e.Report()
	assert.Equal(t, []string{"sub/x.txt"}, rep.FilesCreated)
	assert.Equal(t, []string{"sub"}, rep.DirsCreated)
	assert.Empty(t, rep.Errors)
	assert.Equal(t, "hello", readFile(t, root, "sub/x.txt"))
	assert.Contains(t, rep.Diffs["sub/x.txt"], "+hello")
}

func TestExistingFileSkippedWithoutOverwrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x.txt", "old")
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{parser.FileBlock{Path: "x.txt", Content: "new"}})

	rep := e.Report()
	assert.Equal(t, []string{"x.txt"}, rep.FilesSkipped)
	assert.Empty(t, rep.FilesCreated)
	assert.NotContains(t, rep.Diffs, "x.txt")
	assert.Equal(t, "old", readFile(t, root, "x.txt"))
}

func TestOverwriteExistingFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x.txt", "old\n")
	e := newEngine(t, root, Options{Overwrite: true})

	e.Run([]parser.Instruction{parser.FileBlock{Path: "x.txt", Content: "new\n"}})

	rep := e.Report()
	assert.Equal(t, []string{"x.txt"}, rep.FilesOverwritten)
	assert.Equal(t, "new\n", readFile(t, root, "x.txt"))
	assert.Contains(t, rep.Diffs["x.txt"], "-old")
	assert.Contains(t, rep.Diffs["x.txt"], "+new")
}

func TestIdenticalOverwriteRecordsNoDiff(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x.txt", "same\n")
	e := newEngine(t, root, Options{Overwrite: true})

	e.Run([]parser.Instruction{parser.FileBlock{Path: "x.txt", Content: "same\n"}})

	rep := e.Report()
	assert.Equal(t, []string{"x.txt"}, rep.FilesOverwritten)
	assert.Empty(t, rep.Diffs)
	assert.Equal(t, "same\n", readFile(t, root, "x.txt"))
}

func TestReplaceAllOccurrences(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "foo bar foo")
	e := newEngine(t, root, Options{Overwrite: true})

	e.Run([]parser.Instruction{parser.ReplaceBlock{Path: "a.txt", Search: "foo", Replacement: "baz"}})

	rep := e.Report()
	assert.Equal(t, []string{"a.txt"}, rep.FilesOverwritten)
	assert.Equal(t, "baz bar baz", readFile(t, root, "a.txt"))
}

func TestReplaceWithoutOverwriteSkipsButKeepsDiff(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "foo\n")
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{parser.ReplaceBlock{Path: "a.txt", Search: "foo", Replacement: "baz"}})

	rep := e.Report()
	assert.Equal(t, []string{"a.txt"}, rep.FilesSkipped)
	assert.Equal(t, "foo\n", readFile(t, root, "a.txt"))
	assert.Contains(t, rep.Diffs["a.txt"], "+baz")
}

func TestSequentialReplacementsYieldOneCumulativeDiff(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha\n")
	e := newEngine(t, root, Options{Overwrite: true})

	e.Run([]parser.Instruction{
		parser.ReplaceBlock{Path: "a.txt", Search: "alpha", Replacement: "beta"},
		parser.ReplaceBlock{Path: "a.txt", Search: "beta", Replacement: "gamma"},
	})

	rep := e.Report()
	assert.Equal(t, "gamma\n", readFile(t, root, "a.txt"))

	diff := rep.Diffs["a.txt"]
	assert.Contains(t, diff, "-alpha")
	assert.Contains(t, diff, "+gamma")
	assert.NotContains(t, diff, "beta")
}

func TestReplaceTargetMissing(t *testing.T) {
	root := t.TempDir()
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{parser.ReplaceBlock{Path: "nope.txt", Search: "a", Replacement: "b"}})

	rep := e.Report()
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0], "Replacement target not found: 'nope.txt'")
}

func TestReplaceNoOccurrences(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	e := newEngine(t, root, Options{Overwrite: true})

	e.Run([]parser.Instruction{parser.ReplaceBlock{Path: "a.txt", Search: "absent", Replacement: "b"}})

	rep := e.Report()
	assert.Empty(t, rep.Errors)
	assert.Equal(t, []string{"a.txt"}, rep.FilesSkipped)
	assert.Equal(t, "hello", readFile(t, root, "a.txt"))
}

func TestNonBreakingSpaceInSearchMatchesPlainSpace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello world")
	e := newEngine(t, root, Options{Overwrite: true})

	e.Run([]parser.Instruction{parser.ReplaceBlock{
		Path:        "a.txt",
		Search:      "hello\u00a0world",
		Replacement: "goodbye world",
	}})

	rep := e.Report()
	assert.Empty(t, rep.Errors)
	assert.Equal(t, "goodbye world", readFile(t, root, "a.txt"))
}

func TestTabExpansionDuringApply(t *testing.T) {
	root := t.TempDir()
	e := newEngine(t, root, Options{TabWidth: 4})

	e.Run([]parser.Instruction{parser.FileBlock{Path: "a.txt", Content: "\tindented"}})

	assert.Equal(t, "    indented", readFile(t, root, "a.txt"))
}

func TestDryRunEditsComposeWithoutTouchingDisk(t *testing.T) {
	root := t.TempDir()
	e := newEngine(t, root, Options{DryRun: true})

	e.Run([]parser.Instruction{
		parser.FileBlock{Path: "a.txt", Content: "one"},
		parser.ReplaceBlock{Path: "a.txt", Search: "one", Replacement: "two"},
	})

	rep := e.Report()
	assert.Empty(t, rep.Errors)
	assert.Equal(t, []string{"a.txt"}, rep.FilesCreated)

	diff := rep.Diffs["a.txt"]
	assert.Contains(t, diff, "+two")
	assert.NotContains(t, diff, "one")

	_, err := os.Stat(filepath.Join(root, "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDryRunRemovalsLeaveDiskAlone(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "old.txt", "x")
	e := newEngine(t, root, Options{DryRun: true})

	e.Run([]parser.Instruction{parser.DeleteFile{Path: "old.txt"}})
	e.ExecuteRemovals()

	rep := e.Report()
	assert.Equal(t, []string{"old.txt"}, rep.FilesRemoved)
	assert.FileExists(t, filepath.Join(root, "old.txt"))
}

func TestRemovalsAreStagedUntilExecuted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "old.log", "x")
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{parser.DeleteFile{Path: "old.log"}})

	files, dirs := e.PendingRemovals()
	assert.Equal(t, []string{"old.log"}, files)
	assert.Empty(t, dirs)
	assert.FileExists(t, filepath.Join(root, "old.log"))

	e.ExecuteRemovals()

	rep := e.Report()
	assert.Equal(t, []string{"old.log"}, rep.FilesRemoved)
	assert.NoFileExists(t, filepath.Join(root, "old.log"))
}

func TestRemoveMissingFileIsSilent(t *testing.T) {
	root := t.TempDir()
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{parser.DeleteFile{Path: "absent.txt"}})
	e.ExecuteRemovals()

	rep := e.Report()
	assert.Empty(t, rep.Errors)
	assert.Empty(t, rep.FilesRemoved)
}

func TestRemoveEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{parser.DeleteDirectory{Path: "empty"}})
	e.ExecuteRemovals()

	rep := e.Report()
	assert.Equal(t, []string{"empty"}, rep.DirsRemoved)
	assert.NoDirExists(t, filepath.Join(root, "empty"))
}

func TestNonEmptyDirectoryRemovalIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "full/keep.txt", "x")
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{parser.DeleteDirectory{Path: "full"}})
	e.ExecuteRemovals()

	rep := e.Report()
	assert.Empty(t, rep.Errors)
	assert.Equal(t, []string{"full"}, rep.DirsSkippedRemoval)
	assert.DirExists(t, filepath.Join(root, "full"))
}

func TestDirectoryRemovalOfFileIsAnError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notadir", "x")
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{parser.DeleteDirectory{Path: "notadir"}})
	e.ExecuteRemovals()

	rep := e.Report()
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0], "It is not a directory.")
	assert.FileExists(t, filepath.Join(root, "notadir"))
}

func TestPathsOutsideRootAreRefused(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "work")
	require.NoError(t, os.Mkdir(root, 0o755))
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{
		parser.FileBlock{Path: "../escape.txt", Content: "x"},
		parser.DeleteFile{Path: "../victim.txt"},
	})

	rep := e.Report()
	require.Len(t, rep.Errors, 2)
	assert.Contains(t, rep.Errors[0], "Refusing path outside output root: '../escape.txt'")
	assert.NoFileExists(t, filepath.Join(parent, "escape.txt"))

	files, _ := e.PendingRemovals()
	assert.Empty(t, files)
}

func TestFileCreatedThenReplacedStaysCreated(t *testing.T) {
	root := t.TempDir()
	e := newEngine(t, root, Options{Overwrite: true})

	e.Run([]parser.Instruction{
		parser.FileBlock{Path: "a.txt", Content: "one"},
		parser.ReplaceBlock{Path: "a.txt", Search: "one", Replacement: "two"},
	})

	rep := e.Report()
	assert.Equal(t, []string{"a.txt"}, rep.FilesCreated)
	assert.Empty(t, rep.FilesOverwritten)
	assert.Equal(t, "two", readFile(t, root, "a.txt"))
}

func TestRecordErrorsMergesParseErrors(t *testing.T) {
	e := newEngine(t, t.TempDir(), Options{})
	e.RecordErrors([]string{"Expected code block start fence for file 'a.txt'."})

	rep := e.Report()
	assert.True(t, rep.HasErrors())
	assert.Len(t, rep.Errors, 1)
}

func TestActionCount(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "old.txt", "x")
	e := newEngine(t, root, Options{})

	e.Run([]parser.Instruction{
		parser.FileBlock{Path: "sub/new.txt", Content: "y"},
		parser.DeleteFile{Path: "old.txt"},
	})
	e.ExecuteRemovals()

	// One directory, one create, one removal.
	assert.Equal(t, 3, e.Report().ActionCount())
}
