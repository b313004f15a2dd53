package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// maxStderr bounds how much stderr ends up in an error message.
const maxStderr = 2048

type implExecutor struct{}

// New creates a new Executor instance
func New() Executor {
	return &implExecutor{}
}

func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return e.run(ctx, "", name, args)
}

func (e *implExecutor) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error) {
	return e.run(ctx, dir, name, args)
}

func (e *implExecutor) run(ctx context.Context, dir, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// a killed process reports "signal: killed"; surface the deadline instead
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		stderrStr := strings.TrimSpace(stderr.String())
		if len(stderrStr) > maxStderr {
			stderrStr = "..." + stderrStr[len(stderrStr)-maxStderr:]
		}
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}
