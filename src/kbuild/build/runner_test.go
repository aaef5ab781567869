package build

import (
	"context"
	"errors"
	"strings"
)

// fakeRunner records every invocation and returns canned results keyed by
// a space-joined argv prefix.
type fakeRunner struct {
	calls    []RunOpts
	failures map[string]error  // Run fails when the joined argv has this prefix
	outputs  map[string]string // Output succeeds with this value for an exact argv
	missing  map[string]bool   // LookPath fails for these names
	onRun    func(opts RunOpts) error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		failures: map[string]error{},
		outputs:  map[string]string{},
		missing:  map[string]bool{},
	}
}

func (f *fakeRunner) Run(ctx context.Context, opts RunOpts) error {
	f.calls = append(f.calls, opts)
	if f.onRun != nil {
		if err := f.onRun(opts); err != nil {
			return err
		}
	}
	cmd := strings.Join(opts.Argv, " ")
	for prefix, err := range f.failures {
		if strings.HasPrefix(cmd, prefix) {
			return err
		}
	}
	return nil
}

func (f *fakeRunner) Output(ctx context.Context, opts RunOpts) (string, error) {
	f.calls = append(f.calls, opts)
	cmd := strings.Join(opts.Argv, " ")
	if out, ok := f.outputs[cmd]; ok {
		return out, nil
	}
	return "", errors.New("exit status 1")
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + name, nil
}

// commandLines returns each recorded invocation as a single string
func (f *fakeRunner) commandLines() []string {
	lines := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		lines = append(lines, strings.Join(call.Argv, " "))
	}
	return lines
}

// hasCommand reports whether any recorded invocation starts with prefix
func (f *fakeRunner) hasCommand(prefix string) bool {
	for _, line := range f.commandLines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
