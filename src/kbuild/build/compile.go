package build

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
	"github.com/sdunnagan/kbuild-centos/src/common/paths"
)

// CompileStep runs the parallel kernel build and determines success from
// both the make exit status and the presence of the expected artifact.
type CompileStep struct{}

// Name returns the step name
func (s *CompileStep) Name() string { return "build" }

// Run executes the build. The report is created here (build start),
// written through the build, and finalized with the footer regardless of
// outcome; pc.Report carries the result to the caller.
func (s *CompileStep) Run(ctx context.Context, pc *Pipeline) error {
	// A stale artifact from a previous run must not fake a success
	removeStaleArtifacts(pc)

	pinPerformanceGovernor(ctx, pc.Runner)

	report, err := NewReport(pc, time.Now())
	if err != nil {
		return err
	}
	pc.Report = report
	defer report.Close()

	cc := compilerVersion(ctx, pc.Runner, pc.Arch)
	if err := report.WriteHeader(time.Now(), cc); err != nil {
		return kberrors.Wrap(err, kberrors.DomainBuild, kberrors.CodeInternal, "failed to write log header")
	}

	argv := []string{
		"make",
		fmt.Sprintf("-j%d", pc.Jobs()),
		"ARCH=" + pc.Arch.MakeArch,
		"O=" + pc.BuildDir,
		"WERROR=0",
	}
	if !pc.Arch.Native() {
		argv = append(argv, "CROSS_COMPILE="+pc.Arch.CrossCompile)
	}
	report.BuildCommand = strings.Join(argv, " ")

	log.Info("Starting kernel build", "command", report.BuildCommand, "log", report.LogPath)

	start := time.Now()
	// Combined output goes to the log file; the make exit status is
	// the command's own, not a downstream pipeline stage's.
	buildErr := pc.Runner.Run(ctx, RunOpts{
		Argv:   argv,
		Dir:    pc.SourceDir,
		Stdout: report.File(),
		Stderr: report.File(),
	})
	report.Elapsed = time.Since(start)

	artifact, present := findArtifact(pc)
	report.Success = buildErr == nil && present

	if err := report.WriteFooter(); err != nil {
		log.Warn("Failed to write log footer", "error", err)
	}
	report.PrintStatus()

	if buildErr != nil {
		return kberrors.ErrBuildFailed.WithCause(buildErr)
	}
	if !present {
		return kberrors.ErrArtifactMissing.WithMessagef("expected artifact %s is absent", artifact)
	}

	log.Info("Build artifact present", "artifact", artifact)
	return nil
}

// findArtifact locates the expected artifact for the target. For x86_64
// the vmlinux symbol file may live in the build directory or fall back to
// the source tree.
func findArtifact(pc *Pipeline) (string, bool) {
	primary := pc.Arch.ArtifactPath(pc.BuildDir)
	if paths.IsFile(primary) {
		return primary, true
	}
	if fallback := pc.Arch.SourceArtifactPath(pc.SourceDir); fallback != "" {
		if paths.IsFile(fallback) {
			return fallback, true
		}
	}
	return primary, false
}

// removeStaleArtifacts deletes pre-existing expected artifacts for all
// supported architectures so a previous run cannot fake a success.
func removeStaleArtifacts(pc *Pipeline) {
	for _, token := range ValidArchs() {
		info := ArchInfo{Token: token, MakeArch: archRegistry[token].makeArch}
		os.Remove(info.ArtifactPath(pc.BuildDir))
		if fallback := info.SourceArtifactPath(pc.SourceDir); fallback != "" {
			os.Remove(fallback)
		}
	}
}
