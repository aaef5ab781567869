package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m00s"},
		{59 * time.Second, "0m59s"},
		{60 * time.Second, "1m00s"},
		{95 * time.Second, "1m35s"},
		{3725 * time.Second, "62m05s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestLogsDir(t *testing.T) {
	if got := LogsDir("/tmp/build"); got != filepath.Join("/tmp/build", "logs") {
		t.Errorf("LogsDir = %q", got)
	}
}

func TestReportLifecycle(t *testing.T) {
	tmp := t.TempDir()
	arch, _ := ResolveArch(HostArchX86_64, ArchX86_64)
	pc := &Pipeline{
		SourceDir:      filepath.Join(tmp, "src"),
		BuildDir:       filepath.Join(tmp, "build"),
		Stream:         StreamC9S,
		Arch:           arch,
		ConfigFragment: "/src/redhat/configs/kernel-6.12.0-x86_64-debug.config",
	}

	now := time.Date(2026, 2, 3, 14, 30, 0, 0, time.UTC)
	report, err := NewReport(pc, now)
	if err != nil {
		t.Fatalf("NewReport: %v", err)
	}
	defer report.Close()

	wantName := "build-c9s-20260203-1430.log"
	if filepath.Base(report.LogPath) != wantName {
		t.Errorf("log name = %q, want %q", filepath.Base(report.LogPath), wantName)
	}
	if filepath.Dir(report.LogPath) != LogsDir(pc.BuildDir) {
		t.Errorf("log dir = %q, want %q", filepath.Dir(report.LogPath), LogsDir(pc.BuildDir))
	}

	if err := report.WriteHeader(now, "gcc (GCC) 14.2.1"); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	report.BuildCommand = "make -j8 ARCH=x86_64"
	report.Elapsed = 95 * time.Second
	report.Success = true
	if err := report.WriteFooter(); err != nil {
		t.Fatalf("WriteFooter: %v", err)
	}
	report.Close()

	content, err := os.ReadFile(report.LogPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(content)
	for _, want := range []string{
		"kbuild c9s kernel build",
		"Compiler:  gcc (GCC) 14.2.1",
		"Arch:      x86_64 (make ARCH=x86_64)",
		"Config:    " + pc.ConfigFragment,
		"Command:   make -j8 ARCH=x86_64",
		"Duration:  1m35s",
		"Status:    OK",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("log missing %q, got:\n%s", want, text)
		}
	}
}

func TestCompilerVersion(t *testing.T) {
	arch, _ := ResolveArch(HostArchX86_64, ArchAARCH64)

	r := newFakeRunner()
	r.outputs["aarch64-linux-gnu-gcc --version"] = "aarch64-linux-gnu-gcc (GCC) 14.2.1\nCopyright (C) 2024\n"

	if got := compilerVersion(context.Background(), r, arch); got != "aarch64-linux-gnu-gcc (GCC) 14.2.1" {
		t.Errorf("compilerVersion = %q", got)
	}

	// Probe failure degrades to a placeholder, never an error
	if got := compilerVersion(context.Background(), newFakeRunner(), arch); got != "unknown" {
		t.Errorf("compilerVersion on failure = %q, want unknown", got)
	}
}
