package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
)

// logTimeFormat gives minute-resolution log file names
const logTimeFormat = "20060102-1504"

// Report is the append-only build log record plus everything the footer
// and the terminal status line need. It is never read back by the tool.
type Report struct {
	Stream         Stream
	Arch           ArchInfo
	SourceDir      string
	BuildDir       string
	ConfigFragment string
	BuildCommand   string
	Elapsed        time.Duration
	Success        bool

	LogPath string
	file    *os.File
}

// LogsDir returns the fixed logs directory under a build directory
func LogsDir(buildDir string) string {
	return filepath.Join(buildDir, "logs")
}

// NewReport creates the timestamped log file for this run
func NewReport(pc *Pipeline, now time.Time) (*Report, error) {
	dir := LogsDir(pc.BuildDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, kberrors.Wrap(err, kberrors.DomainBuild, kberrors.CodeInternal, "failed to create logs directory")
	}

	name := fmt.Sprintf("build-%s-%s.log", pc.Stream, now.Format(logTimeFormat))
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, kberrors.Wrap(err, kberrors.DomainBuild, kberrors.CodeInternal, "failed to create log file")
	}

	return &Report{
		Stream:         pc.Stream,
		Arch:           pc.Arch,
		SourceDir:      pc.SourceDir,
		BuildDir:       pc.BuildDir,
		ConfigFragment: pc.ConfigFragment,
		LogPath:        path,
		file:           f,
	}, nil
}

// File returns the open log file for build output redirection
func (r *Report) File() *os.File {
	return r.file
}

// WriteHeader writes the fixed-format header at build start
func (r *Report) WriteHeader(now time.Time, compilerVersion string) error {
	var sb strings.Builder
	sb.WriteString("==============================================================\n")
	fmt.Fprintf(&sb, " kbuild %s kernel build\n", r.Stream)
	fmt.Fprintf(&sb, " Started:   %s\n", now.Format(time.RFC1123))
	fmt.Fprintf(&sb, " Compiler:  %s\n", compilerVersion)
	fmt.Fprintf(&sb, " Arch:      %s (make ARCH=%s)\n", r.Arch.Token, r.Arch.MakeArch)
	fmt.Fprintf(&sb, " Source:    %s\n", r.SourceDir)
	fmt.Fprintf(&sb, " Build:     %s\n", r.BuildDir)
	if r.ConfigFragment != "" {
		fmt.Fprintf(&sb, " Config:    %s\n", r.ConfigFragment)
	}
	sb.WriteString("==============================================================\n")

	_, err := r.file.WriteString(sb.String())
	return err
}

// WriteFooter writes the structured summary appended after the build
func (r *Report) WriteFooter() error {
	status := "FAILED"
	if r.Success {
		status = "OK"
	}

	var sb strings.Builder
	sb.WriteString("==============================================================\n")
	fmt.Fprintf(&sb, " Command:   %s\n", r.BuildCommand)
	fmt.Fprintf(&sb, " Duration:  %s\n", FormatDuration(r.Elapsed))
	fmt.Fprintf(&sb, " Status:    %s\n", status)
	sb.WriteString("==============================================================\n")

	_, err := r.file.WriteString(sb.String())
	return err
}

// Close closes the underlying log file
func (r *Report) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// PrintStatus emits the colorized terminal summary
func (r *Report) PrintStatus() {
	if r.Success {
		log.Info("Kernel build succeeded",
			"arch", r.Arch.Token,
			"duration", FormatDuration(r.Elapsed),
			"log", r.LogPath)
		return
	}
	log.Error("Kernel build failed",
		"arch", r.Arch.Token,
		"duration", FormatDuration(r.Elapsed),
		"log", r.LogPath)
}

// FormatDuration renders a wall-clock duration as minutes and seconds
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%dm%02ds", total/60, total%60)
}

// compilerVersion returns the first line of the target compiler's
// --version output, or "unknown" when the probe fails.
func compilerVersion(ctx context.Context, r Runner, arch ArchInfo) string {
	out, err := r.Output(ctx, RunOpts{
		Argv: []string{arch.CrossCompile + "gcc", "--version"},
	})
	if err != nil {
		return "unknown"
	}
	if idx := strings.IndexByte(out, '\n'); idx >= 0 {
		out = out[:idx]
	}
	return out
}
