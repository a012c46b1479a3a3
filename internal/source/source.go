package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"ctxit/internal/ui"
)

// Provider retrieves the context document text to apply.
type Provider struct{}

// New creates a new Provider.
func New() *Provider {
	return &Provider{}
}

// Read returns the document text from, in order of preference: the named
// file, piped stdin, the clipboard.
func (p *Provider) Read(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading input file '%s': %w", path, err)
		}
		return string(data), nil
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		ui.Header("--- Reading from stdin ---")
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading from stdin: %w", err)
		}
		return string(data), nil
	}

	ui.Header("--- Reading from clipboard ---")
	content, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("reading from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		ui.Warning("Clipboard is empty. Nothing to process.")
		return "", nil
	}
	return content, nil
}

// WriteClipboard copies a rendered document to the clipboard.
func WriteClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("writing to clipboard: %w", err)
	}
	return nil
}
