package document

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// OutlineEntry describes one structural element found in a document.
type OutlineEntry struct {
	// Kind is "heading" or "code".
	Kind string
	// Level is the heading level; zero for code blocks.
	Level int
	// Text is the heading text, or the fence language tag for code blocks.
	Text string
	// Lines and Bytes describe a code block's body.
	Lines int
	Bytes int
}

// Outline walks the markdown AST of a document and lists its headings and
// fenced code blocks in order. It is advisory tooling for the inspect
// command; the instruction parser does not use it.
func Outline(source []byte) ([]OutlineEntry, error) {
	var entries []OutlineEntry
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			entries = append(entries, OutlineEntry{
				Kind:  "heading",
				Level: n.Level,
				Text:  string(n.Text(source)),
			})
		case *ast.FencedCodeBlock:
			var lang string
			if n.Info != nil {
				lang = string(n.Info.Text(source))
			}
			var body bytes.Buffer
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				body.Write(seg.Value(source))
			}
			entries = append(entries, OutlineEntry{
				Kind:  "code",
				Text:  lang,
				Lines: lines.Len(),
				Bytes: body.Len(),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}
	return entries, nil
}
