package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// runClangProcess shells out to clangPath with args, matching
// ClangToolchain.Compile's exec.Command idiom. A non-zero exit names the
// tool and surfaces its stderr for diagnosis.
func runClangProcess(ctx context.Context, clangPath string, args []string) error {
	cmd := exec.CommandContext(ctx, clangPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w\n%s", clangPath, err, stderr.String())
	}
	return nil
}
