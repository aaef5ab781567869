// Package build implements the kernel build orchestration pipeline:
// repository provisioning, configuration, patch application, compilation,
// and reporting. Every external tool invocation goes through the Runner
// interface so each step can be exercised in tests without a kernel tree.
package build

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sdunnagan/kbuild-centos/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the build package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// RunOpts holds options for running an external command
type RunOpts struct {
	Argv    []string // command and arguments; Argv[0] is the binary
	Dir     string   // working directory (process cwd if empty)
	Env     map[string]string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// Runner is the interface for running external tools (git, make, ctags,
// cpupower). The host implementation shells out; tests substitute a fake.
type Runner interface {
	// Run executes a command with the given options
	Run(ctx context.Context, opts RunOpts) error

	// Output executes a command and returns its trimmed standard output
	Output(ctx context.Context, opts RunOpts) (string, error)

	// LookPath reports where a binary resolves on the execution path
	LookPath(name string) (string, error)
}

// HostRunner executes commands directly on the host
type HostRunner struct{}

// NewHostRunner creates a host Runner
func NewHostRunner() *HostRunner {
	return &HostRunner{}
}

func (r *HostRunner) command(ctx context.Context, opts RunOpts) *exec.Cmd {
	cmd := exec.CommandContext(ctx, opts.Argv[0], opts.Argv[1:]...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	cmd.Stdin = opts.Stdin
	return cmd
}

// Run executes a command, capturing stderr for the error message when the
// caller did not redirect it.
func (r *HostRunner) Run(ctx context.Context, opts RunOpts) error {
	cmd := r.command(ctx, opts)

	var stderr bytes.Buffer
	cmd.Stdout = opts.Stdout
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", opts.Argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", opts.Argv[0], err)
	}
	return nil
}

// Output executes a command and returns its trimmed standard output
func (r *HostRunner) Output(ctx context.Context, opts RunOpts) (string, error) {
	cmd := r.command(ctx, opts)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", opts.Argv[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", opts.Argv[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// LookPath resolves a binary on PATH
func (r *HostRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
