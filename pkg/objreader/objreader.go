// Package objreader implements §4.D: invoking the object-file reader and
// parsing its structured dump into a neutral in-memory tree.
package objreader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
)

// Args are the reader arguments requesting JSON output and expansion of
// relocations, section data, section relocations, and section symbols, per
// spec.md §6's consumed contract.
var Args = []string{
	"--elf-output-style=JSON",
	"--expand-relocs",
	"--pretty-print",
	"--section-data",
	"--section-relocations",
	"--section-symbols",
	"--sections",
}

// machODecorations are platform-specific lines the reader emits that aren't
// valid JSON tokens on their own; build.py strips them unconditionally.
var machODecorations = [][]byte{
	[]byte("PrivateExtern\n"),
	[]byte("Extern\n"),
}

// Section is one wrapped `{"Section": {...}}` entry from the reader's
// output, already unwrapped to the inner object.
type Section = map[string]any

// runTool is overridable in tests.
var runTool = func(ctx context.Context, reader, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, reader, append(append([]string{}, Args...), path)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("objreader: %s exited with %d", reader, exitErr.ExitCode())
		}
		return nil, fmt.Errorf("objreader: running %s: %w", reader, err)
	}
	return stdout.Bytes(), nil
}

// Read invokes reader on the object file at path and returns the parsed
// sequence of sections.
func Read(ctx context.Context, reader, path string) ([]Section, error) {
	output, err := runTool(ctx, reader, path)
	if err != nil {
		return nil, err
	}

	return Parse(output)
}

// Parse trims Mach-O decorations, locates the outermost JSON array, and
// unmarshals the reader's output into a sequence of sections, mirroring
// build.py's ObjectParser.parse body-handling prologue.
func Parse(output []byte) ([]Section, error) {
	for _, decoration := range machODecorations {
		output = bytes.ReplaceAll(output, decoration, []byte("\n"))
	}

	start := bytes.IndexByte(output, '[')
	end := bytes.LastIndexByte(output, ']')
	if start < 0 || end < 0 || end < start {
		return nil, fmt.Errorf("objreader: no JSON array found in reader output")
	}

	var wrapped []map[string]json.RawMessage
	if err := json.Unmarshal(output[start:end+1], &wrapped); err != nil {
		return nil, fmt.Errorf("objreader: parsing reader output: %w", err)
	}

	sections := make([]Section, 0, len(wrapped))
	for _, entry := range wrapped {
		raw, ok := entry["Section"]
		if !ok {
			return nil, fmt.Errorf("objreader: entry missing \"Section\" key")
		}

		var section Section
		if err := json.Unmarshal(raw, &section); err != nil {
			return nil, fmt.Errorf("objreader: parsing section: %w", err)
		}

		sections = append(sections, section)
	}

	return sections, nil
}
