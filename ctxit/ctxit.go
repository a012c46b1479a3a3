// Package ctxit is the embeddable entry point for host programs (GUIs,
// editors, scripts). It exposes the two core operations — serializing a
// directory into a context document and applying a document back — while
// keeping the two-phase removal protocol available for confirmation UIs.
package ctxit

import (
	"fmt"

	"ctxit/internal/apply"
	"ctxit/internal/config"
	"ctxit/internal/document"
	"ctxit/internal/generator"
	"ctxit/internal/parser"
)

// Report is the result of one apply pass.
type Report = apply.Report

// Stats are the counters of one generate pass.
type Stats = document.Stats

// GenerateOptions configure a generate pass.
type GenerateOptions struct {
	// ConfigFile names the config file inside the root; empty means the
	// default ".context".
	ConfigFile string
	// Section picks a config section; empty follows the file's order.
	Section string
	// TabWidth expands tabs to N spaces in embedded content.
	TabWidth int
	// ToolName is hidden from all listings, typically the host binary.
	ToolName string
}

// GenerateResult bundles the rendered document with its statistics and
// file overview.
type GenerateResult struct {
	// Text is the complete rendered document.
	Text string
	// OutputFile is the configured output file name (not written here).
	OutputFile string

	Stats         Stats
	IncludedFiles []string
	SkippedFiles  []string
}

// Generate serializes the selected subtree of root into a context
// document, honoring the root's config file.
func Generate(root string, opts GenerateOptions) (*GenerateResult, error) {
	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = config.DefaultFileName
	}
	cfg, _, err := config.Load(root, configFile, opts.Section)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	res, err := generator.Generate(root, cfg, generator.Options{
		ToolName:   opts.ToolName,
		ConfigName: configFile,
		TabWidth:   opts.TabWidth,
		Section:    opts.Section,
	})
	if err != nil {
		return nil, err
	}

	return &GenerateResult{
		Text:          res.Render(),
		OutputFile:    res.OutputFile,
		Stats:         res.Stats,
		IncludedFiles: res.IncludedOverview,
		SkippedFiles:  res.SkippedOverview,
	}, nil
}

// ApplyOptions configure an apply pass.
type ApplyOptions struct {
	Overwrite bool
	DryRun    bool
	TabWidth  int
}

// ApplyResult holds a finished first phase. Removals named by the
// document are staged on it; the host decides whether to execute them.
type ApplyResult struct {
	engine *apply.Engine

	// PendingFileRemovals and PendingDirRemovals list what the document
	// wants deleted, in document order.
	PendingFileRemovals []string
	PendingDirRemovals  []string
}

// Apply parses the document text and applies its instructions under
// outputRoot. Structural and apply-time errors are collected into the
// report; only an invalid output root fails outright.
func Apply(text, outputRoot string, opts ApplyOptions) (*ApplyResult, error) {
	parsed := parser.Parse(text)

	engine, err := apply.New(outputRoot, apply.Options{
		Overwrite: opts.Overwrite,
		DryRun:    opts.DryRun,
		TabWidth:  opts.TabWidth,
	})
	if err != nil {
		return nil, err
	}
	engine.RecordErrors(parsed.Errors)
	engine.Run(parsed.Instructions)

	files, dirs := engine.PendingRemovals()
	return &ApplyResult{
		engine:              engine,
		PendingFileRemovals: files,
		PendingDirRemovals:  dirs,
	}, nil
}

// ExecuteRemovals runs the staged removals. Call it once, after whatever
// confirmation the host requires.
func (r *ApplyResult) ExecuteRemovals() {
	r.engine.ExecuteRemovals()
}

// Report returns the accumulated results, including removal effects if
// ExecuteRemovals ran.
func (r *ApplyResult) Report() *Report {
	return r.engine.Report()
}
