package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// Run executes a one-shot command and returns its combined output.
//
// The command inherits the parent environment and is bounded by ctx.
// Output is trimmed of trailing whitespace; wpa_cli answers with bare
// words like "OK" or "FAIL" and callers compare against those.
//
// Parameters:
//   - ctx: Bounds the command's lifetime
//   - name: Binary path
//   - args: Command arguments
//
// Returns:
//   - string: Trimmed combined stdout/stderr
//   - error: Exec failure, non-zero exit, or context expiry
func Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := strings.TrimSpace(buf.String())

	if ctx.Err() != nil {
		return output, fmt.Errorf("running %s: %w", name, ctx.Err())
	}
	if err != nil {
		return output, fmt.Errorf("running %s: %w", name, err)
	}

	return output, nil
}

// pgidAttr places a child in its own process group so Stop can signal the
// daemon and anything it forked in one go.
func pgidAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
