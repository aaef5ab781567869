package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
)

func TestStreamRepoURL(t *testing.T) {
	tests := []struct {
		stream Stream
		want   string
	}{
		{StreamC9S, "https://gitlab.com/redhat/centos-stream/src/kernel/c9s.git"},
		{StreamC10S, "https://gitlab.com/redhat/centos-stream/src/kernel/c10s.git"},
	}

	for _, tt := range tests {
		if got := StreamRepoURL(tt.stream); got != tt.want {
			t.Errorf("StreamRepoURL(%s) = %q, want %q", tt.stream, got, tt.want)
		}
	}
}

func TestConfirmReclone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes confirms", "yes\n", true},
		{"yes without newline", "yes", true},
		{"no declines", "no\n", false},
		{"empty line declines", "\n", false},
		{"uppercase declines", "YES\n", false},
		{"partial declines", "y\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := confirmReclone(strings.NewReader(tt.input), "/tmp/src")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("confirmReclone(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestProvisionStep_FreshClone(t *testing.T) {
	tmp := t.TempDir()
	r := newFakeRunner()
	pc := &Pipeline{
		SourceDir: filepath.Join(tmp, "src"),
		BuildDir:  filepath.Join(tmp, "build"),
		Stream:    StreamC9S,
		Runner:    r,
	}

	step := &ProvisionStep{}
	if err := step.Run(context.Background(), pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "git clone " + StreamRepoURL(StreamC9S) + " " + pc.SourceDir
	if !r.hasCommand(want) {
		t.Errorf("expected clone command %q, got %v", want, r.commandLines())
	}
}

func TestProvisionStep_DeclinedReclone(t *testing.T) {
	tmp := t.TempDir()
	sourceDir := filepath.Join(tmp, "src")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		t.Fatal(err)
	}

	r := newFakeRunner()
	pc := &Pipeline{
		SourceDir: sourceDir,
		BuildDir:  filepath.Join(tmp, "build"),
		Stream:    StreamC9S,
		Runner:    r,
		Stdin:     strings.NewReader("no\n"),
	}

	err := (&ProvisionStep{}).Run(context.Background(), pc)
	if !kberrors.Is(err, kberrors.ErrCloneDeclined) {
		t.Fatalf("expected ErrCloneDeclined, got %v", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("expected no commands after decline, got %v", r.commandLines())
	}
	if _, statErr := os.Stat(sourceDir); statErr != nil {
		t.Errorf("source directory should be untouched after decline: %v", statErr)
	}
}

func TestProvisionStep_ConfirmedReclone(t *testing.T) {
	tmp := t.TempDir()
	sourceDir := filepath.Join(tmp, "src")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		t.Fatal(err)
	}

	r := newFakeRunner()
	pc := &Pipeline{
		SourceDir: sourceDir,
		BuildDir:  filepath.Join(tmp, "build"),
		Stream:    StreamC10S,
		Runner:    r,
		Stdin:     strings.NewReader("yes\n"),
	}

	if err := (&ProvisionStep{}).Run(context.Background(), pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, statErr := os.Stat(sourceDir); !os.IsNotExist(statErr) {
		t.Error("source directory should have been removed before the clone")
	}
	if !r.hasCommand("git clone " + StreamRepoURL(StreamC10S)) {
		t.Errorf("expected clone of %s, got %v", StreamC10S, r.commandLines())
	}
}

func TestProvisionStep_BackportRemotes(t *testing.T) {
	tmp := t.TempDir()
	r := newFakeRunner()
	// "stable" is already registered, the stream remote is not
	r.outputs["git remote get-url stable"] = stableRepoURL

	pc := &Pipeline{
		SourceDir: filepath.Join(tmp, "src"),
		BuildDir:  filepath.Join(tmp, "build"),
		Stream:    StreamC9S,
		Backport:  true,
		Runner:    r,
	}

	if err := (&ProvisionStep{}).Run(context.Background(), pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.hasCommand("git remote add stable") {
		t.Error("stable remote is already registered and should not be re-added")
	}
	if !r.hasCommand("git remote add c9s " + StreamRepoURL(StreamC9S)) {
		t.Errorf("expected stream remote to be added, got %v", r.commandLines())
	}
	for _, remote := range []string{"stable", "c9s"} {
		if !r.hasCommand("git fetch " + remote) {
			t.Errorf("expected fetch of remote %q", remote)
		}
		if !r.hasCommand("git fetch --tags " + remote) {
			t.Errorf("expected tag fetch of remote %q", remote)
		}
	}
}

func TestProvisionStep_FetchFailure(t *testing.T) {
	tmp := t.TempDir()
	r := newFakeRunner()
	r.failures["git fetch stable"] = errors.New("exit status 128")

	pc := &Pipeline{
		SourceDir: filepath.Join(tmp, "src"),
		BuildDir:  filepath.Join(tmp, "build"),
		Stream:    StreamC9S,
		Backport:  true,
		Runner:    r,
	}

	err := (&ProvisionStep{}).Run(context.Background(), pc)
	if !kberrors.Is(err, kberrors.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestProvisionStep_CloneFailure(t *testing.T) {
	tmp := t.TempDir()
	r := newFakeRunner()
	r.failures["git clone"] = errors.New("exit status 128")

	pc := &Pipeline{
		SourceDir: filepath.Join(tmp, "src"),
		BuildDir:  filepath.Join(tmp, "build"),
		Stream:    StreamC9S,
		Runner:    r,
	}

	err := (&ProvisionStep{}).Run(context.Background(), pc)
	if !kberrors.Is(err, kberrors.ErrCloneFailed) {
		t.Fatalf("expected ErrCloneFailed, got %v", err)
	}
}
