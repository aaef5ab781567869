package build

import (
	"context"
	"io"
	"runtime"
)

// Step is a single fallible unit of the orchestration sequence. Steps run
// strictly in order; the first failure stops the whole run.
type Step interface {
	// Name returns the step name for terminal status lines
	Name() string

	// Run executes the step against the shared pipeline state
	Run(ctx context.Context, pc *Pipeline) error
}

// Stream is a distribution variant selector
type Stream string

const (
	StreamC9S  Stream = "c9s"
	StreamC10S Stream = "c10s"
)

// ValidStreams returns all supported stream variants
func ValidStreams() []Stream {
	return []Stream{StreamC9S, StreamC10S}
}

// Pipeline holds the shared state passed through the step sequence.
// It is populated once at startup and mutated only by the fields each
// step is documented to fill in.
type Pipeline struct {
	SourceDir string // kernel source tree
	BuildDir  string // out-of-tree build output directory
	Stream    Stream // distribution variant
	Arch      ArchInfo

	PatchesDir string // directory of *.patch files, empty when not supplied
	Menuconfig bool   // launch the interactive configuration editor
	Backport   bool   // register backporting remotes after cloning

	Runner Runner
	Stdin  io.Reader // confirmation prompt input; nil means os.Stdin

	// Report collects everything the log header/footer needs;
	// owned by the Reporter but filled in along the way.
	Report *Report

	// ConfigFragment is the configuration fragment chosen by the
	// configurator, empty when configuration did not run.
	ConfigFragment string
}

// Jobs returns the parallelism hint passed to make
func (pc *Pipeline) Jobs() int {
	return runtime.NumCPU()
}
