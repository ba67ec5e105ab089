package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/arc-language/shellenv/pkg/env"
)

// DefaultShell is used when $SHELL is unset
const DefaultShell = "/bin/sh"

// Runner starts processes inside an environment
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Base   []string // Environment the descriptor is merged into; os.Environ() when nil
}

// NewRunner creates a runner attached to the given stdio. The descriptor is
// merged into os.Environ().
func NewRunner(stdin io.Reader, stdout, stderr io.Writer) *Runner {
	return &Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
}

// Run executes argv with desc applied and returns the exit code. An empty
// argv starts the interactive shell named by $SHELL.
//
// Canceling ctx interrupts the child with SIGINT and waits for it to exit.
// A child killed by a signal reports 128+signal, as shells do.
func (r *Runner) Run(ctx context.Context, desc *env.Descriptor, argv []string) (int, error) {
	base := r.Base
	if base == nil {
		base = os.Environ()
	}

	if len(argv) == 0 {
		argv = []string{LoginShell(base)}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(desc.Environ(base), ActiveVar+"=1")
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}

	err := cmd.Run()
	if cmd.ProcessState != nil {
		return exitCode(cmd.ProcessState), nil
	}
	if err != nil {
		return 1, fmt.Errorf("running %s: %w", argv[0], err)
	}

	return 0, nil
}

func exitCode(state *os.ProcessState) int {
	if code := state.ExitCode(); code >= 0 {
		return code
	}
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return 1
}

// LoginShell returns $SHELL from environ, or DefaultShell
func LoginShell(environ []string) string {
	for i := len(environ) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(environ[i], "SHELL="); ok && v != "" {
			return v
		}
	}
	return DefaultShell
}

