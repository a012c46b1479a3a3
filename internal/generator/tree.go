package generator

import (
	"os"
	"path/filepath"
	"strings"
)

const maxTreeDepth = 10

// renderTree draws the box-drawing file tree with per-entry status tags.
// The root-level rules apply at every depth, matching the overview lists.
func renderTree(ctx context) string {
	var lines []string

	var visit func(dir, prefix string, depth int)
	visit = func(dir, prefix string, depth int) {
		sub := ctx
		sub.dir = dir
		entries := visibleEntries(sub)

		for i, e := range entries {
			last := i == len(entries)-1
			connector := "├── "
			if last {
				connector = "└── "
			}

			path := filepath.Join(dir, e.Name())
			lines = append(lines, prefix+connector+e.Name()+treeStatus(ctx, path, e))

			if e.IsDir() && subdirSelected(ctx.cfg.Subdirectories, e.Name()) && depth < maxTreeDepth {
				extension := "│   "
				if last {
					extension = "    "
				}
				visit(path, prefix+extension, depth+1)
			}
		}
	}

	visit(ctx.root, "", 0)
	return strings.Join(lines, "\n")
}

func treeStatus(ctx context, path string, e os.DirEntry) string {
	if e.IsDir() {
		if subdirSelected(ctx.cfg.Subdirectories, e.Name()) {
			return " [included]"
		}
		return " [excluded]"
	}

	if isBinaryFile(path) {
		return " [binary]"
	}
	rel := ctx.relPath(path)
	if e.Name() != ctx.cfg.OutputFile &&
		!ctx.rules.IsExcluded(rel, e.Name(), false) &&
		ctx.rules.IncludeInContent(rel, e.Name(), ctx.cfg.FileTypes) {
		return " [included]"
	}
	return " [excluded]"
}
