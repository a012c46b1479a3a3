package apply

import "sort"

// Report summarizes one apply pass. All lists are deduplicated and sorted;
// a path lands in at most one of Created/Overwritten/Skipped per pass.
type Report struct {
	FilesCreated       []string
	FilesOverwritten   []string
	FilesSkipped       []string
	FilesRemoved       []string
	DirsCreated        []string
	DirsRemoved        []string
	DirsSkippedRemoval []string

	Errors []string
	// Diffs maps each touched path to the unified diff against its
	// first-seen-this-pass baseline.
	Diffs map[string]string
}

// HasErrors reports whether any structural or apply-time error was
// recorded.
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// ActionCount is the number of effective mutations, used for the final
// status line.
func (r *Report) ActionCount() int {
	return len(r.DirsCreated) + len(r.FilesCreated) + len(r.FilesOverwritten) +
		len(r.FilesRemoved) + len(r.DirsRemoved)
}

type fileStatus int

const (
	statusNone fileStatus = iota
	statusSkipped
	statusCreated
	statusOverwritten
)

// reportBuilder accumulates results during one pass. It lives inside a
// single Engine; nothing survives the call that built it.
type reportBuilder struct {
	status             map[string]fileStatus
	dirsCreated        map[string]struct{}
	filesRemoved       map[string]struct{}
	dirsRemoved        map[string]struct{}
	dirsSkippedRemoval map[string]struct{}
	errors             []string
	diffs              map[string]string
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{
		status:             make(map[string]fileStatus),
		dirsCreated:        make(map[string]struct{}),
		filesRemoved:       make(map[string]struct{}),
		dirsRemoved:        make(map[string]struct{}),
		dirsSkippedRemoval: make(map[string]struct{}),
		diffs:              make(map[string]string),
	}
}

// markCreated records a path that did not exist at the start of the pass.
// The category sticks: later overwrites of the same path keep it created.
func (b *reportBuilder) markCreated(rel string) {
	if b.status[rel] != statusOverwritten {
		b.status[rel] = statusCreated
	}
}

func (b *reportBuilder) markOverwritten(rel string) {
	if b.status[rel] != statusCreated {
		b.status[rel] = statusOverwritten
	}
}

// markSkipped never demotes an earlier create or overwrite.
func (b *reportBuilder) markSkipped(rel string) {
	if b.status[rel] == statusNone {
		b.status[rel] = statusSkipped
	}
}

func (b *reportBuilder) build() *Report {
	r := &Report{
		Errors: b.errors,
		Diffs:  b.diffs,
	}
	for rel, st := range b.status {
		switch st {
		case statusCreated:
			r.FilesCreated = append(r.FilesCreated, rel)
		case statusOverwritten:
			r.FilesOverwritten = append(r.FilesOverwritten, rel)
		case statusSkipped:
			r.FilesSkipped = append(r.FilesSkipped, rel)
		}
	}
	r.DirsCreated = sortedKeys(b.dirsCreated)
	r.FilesRemoved = sortedKeys(b.filesRemoved)
	r.DirsRemoved = sortedKeys(b.dirsRemoved)
	r.DirsSkippedRemoval = sortedKeys(b.dirsSkippedRemoval)
	sort.Strings(r.FilesCreated)
	sort.Strings(r.FilesOverwritten)
	sort.Strings(r.FilesSkipped)
	return r
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
