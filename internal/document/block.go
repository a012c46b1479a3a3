package document

// Document is an ordered sequence of blocks making up one context document.
type Document struct {
	Blocks []Block
}

// Append adds blocks to the end of the document.
func (d *Document) Append(blocks ...Block) {
	d.Blocks = append(d.Blocks, blocks...)
}

// Block is one unit of a context document. It is a closed set: the concrete
// types below are the only implementations.
type Block interface {
	isBlock()
}

// Preamble is free text placed before any file content.
type Preamble struct {
	Text string
}

// FileBlock carries the full content of one file.
type FileBlock struct {
	Path    string
	Content string
	// Lang is the informational language tag on the opening fence, if any.
	Lang string
}

// DirectorySection groups the blocks generated for one subdirectory.
type DirectorySection struct {
	Path     string
	Children Document
}

// ReplaceBlock is a literal search/replace edit against an existing file.
type ReplaceBlock struct {
	Path        string
	Search      string
	Replacement string
}

// DeleteFile marks a file for removal.
type DeleteFile struct {
	Path string
}

// DeleteDirectory marks a directory for removal. Only empty directories are
// ever removed.
type DeleteDirectory struct {
	Path string
}

// Appendix is free text placed after all file content.
type Appendix struct {
	Text string
}

// FileTree is the pre-rendered tree listing of the scanned directory.
type FileTree struct {
	Text string
}

// Summary carries the generation statistics rendered at the end of a
// document. The token estimate is filled in by the formatter so that it
// reflects the document content before the summary itself.
type Summary struct {
	Stats Stats
}

// FormattingInstructions is the protocol help block appended when the
// corresponding config option is set.
type FormattingInstructions struct{}

// Stats are the counters collected while generating a document.
type Stats struct {
	FilesIncluded   int
	ItemsSkipped    int
	ReadErrors      []string
	EstimatedTokens int
}

func (Preamble) isBlock()               {}
func (FileBlock) isBlock()              {}
func (DirectorySection) isBlock()       {}
func (ReplaceBlock) isBlock()           {}
func (DeleteFile) isBlock()             {}
func (DeleteDirectory) isBlock()        {}
func (Appendix) isBlock()               {}
func (FileTree) isBlock()               {}
func (Summary) isBlock()                {}
func (FormattingInstructions) isBlock() {}
