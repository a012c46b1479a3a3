package ctxit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGenerateApplyRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.txt", "alpha\n")
	writeFile(t, src, "sub/b.txt", "bravo\n")
	writeFile(t, src, ".context", "[DEFAULT]\nsubdirectories = #ALL\n")

	gen, err := Generate(src, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.Stats.FilesIncluded)
	assert.Equal(t, "context.md", gen.OutputFile)
	assert.ElementsMatch(t, []string{"a.txt", "sub/b.txt"}, gen.IncludedFiles)

	dst := t.TempDir()
	res, err := Apply(gen.Text, dst, ApplyOptions{})
	require.NoError(t, err)
	res.ExecuteRemovals()

	rep := res.Report()
	assert.False(t, rep.HasErrors())
	assert.Equal(t, []string{"a.txt", "sub/b.txt"}, rep.FilesCreated)

	a, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(a))

	b, err := os.ReadFile(filepath.Join(dst, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(b))
}

func TestApplyStagesRemovalsForTheHost(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gone.txt", "x")

	res, err := Apply("### DELETE FILE: gone.txt\n", root, ApplyOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"gone.txt"}, res.PendingFileRemovals)
	assert.Empty(t, res.PendingDirRemovals)
	assert.FileExists(t, filepath.Join(root, "gone.txt"))

	res.ExecuteRemovals()

	assert.NoFileExists(t, filepath.Join(root, "gone.txt"))
	assert.Equal(t, []string{"gone.txt"}, res.Report().FilesRemoved)
}

func TestApplyCollectsParseErrors(t *testing.T) {
	root := t.TempDir()

	res, err := Apply("### FILE: broken.txt\nno fence here\n", root, ApplyOptions{})
	require.NoError(t, err)

	rep := res.Report()
	assert.True(t, rep.HasErrors())
	assert.Contains(t, rep.Errors[0], "Expected code block start fence")
}

func TestApplyDryRun(t *testing.T) {
	root := t.TempDir()

	res, err := Apply("### FILE: new.txt\n```\ncontent\n```\n", root, ApplyOptions{DryRun: true})
	require.NoError(t, err)
	res.ExecuteRemovals()

	rep := res.Report()
	assert.Equal(t, []string{"new.txt"}, rep.FilesCreated)
	assert.NoFileExists(t, filepath.Join(root, "new.txt"))
}
