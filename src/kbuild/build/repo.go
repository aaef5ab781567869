package build

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
	"github.com/sdunnagan/kbuild-centos/src/common/paths"
	"golang.org/x/term"
)

const (
	streamBaseURL = "https://gitlab.com/redhat/centos-stream/src/kernel"
	stableRepoURL = "https://git.kernel.org/pub/scm/linux/kernel/git/stable/linux.git"
)

// StreamRepoURL returns the clone URL for a distribution variant
func StreamRepoURL(stream Stream) string {
	return fmt.Sprintf("%s/%s.git", streamBaseURL, stream)
}

// ProvisionStep destroys and re-clones the kernel source tree, and
// optionally registers backporting remotes.
type ProvisionStep struct{}

// Name returns the step name
func (s *ProvisionStep) Name() string { return "provision" }

// Run re-clones the source tree. An existing source directory requires an
// interactive confirmation before it and the build directory are removed;
// anything but the exact string "yes" aborts with no filesystem changes.
func (s *ProvisionStep) Run(ctx context.Context, pc *Pipeline) error {
	if paths.Exists(pc.SourceDir) {
		ok, err := confirmReclone(pc.Stdin, pc.SourceDir)
		if err != nil {
			return kberrors.Wrap(err, kberrors.DomainRepo, kberrors.CodeInternal, "confirmation prompt failed")
		}
		if !ok {
			return kberrors.ErrCloneDeclined
		}

		log.Warn("Removing existing directories", "source", pc.SourceDir, "build", pc.BuildDir)
		if err := os.RemoveAll(pc.SourceDir); err != nil {
			return kberrors.Wrap(err, kberrors.DomainRepo, kberrors.CodeInternal, "failed to remove source directory")
		}
		if err := os.RemoveAll(pc.BuildDir); err != nil {
			return kberrors.Wrap(err, kberrors.DomainRepo, kberrors.CodeInternal, "failed to remove build directory")
		}
	}

	url := StreamRepoURL(pc.Stream)
	log.Info("Cloning kernel repository", "url", url, "dir", pc.SourceDir)
	if err := pc.Runner.Run(ctx, RunOpts{
		Argv: []string{"git", "clone", url, pc.SourceDir},
	}); err != nil {
		return kberrors.ErrCloneFailed.WithCause(err)
	}

	if pc.Backport {
		return s.setupBackportRemotes(ctx, pc)
	}
	return nil
}

// setupBackportRemotes registers the upstream stable remote and the
// stream's own remote for cherry-picking, then fetches branches and tags
// for each. Registration is idempotent: an already-known remote is kept.
func (s *ProvisionStep) setupBackportRemotes(ctx context.Context, pc *Pipeline) error {
	remotes := []struct {
		name string
		url  string
	}{
		{"stable", stableRepoURL},
		{string(pc.Stream), StreamRepoURL(pc.Stream)},
	}

	for _, remote := range remotes {
		if err := s.addRemote(ctx, pc, remote.name, remote.url); err != nil {
			return err
		}

		log.Info("Fetching backporting remote", "remote", remote.name)
		if err := pc.Runner.Run(ctx, RunOpts{
			Argv: []string{"git", "fetch", remote.name},
			Dir:  pc.SourceDir,
		}); err != nil {
			return kberrors.ErrFetchFailed.WithMessagef("fetch of remote %q failed", remote.name).WithCause(err)
		}
		if err := pc.Runner.Run(ctx, RunOpts{
			Argv: []string{"git", "fetch", "--tags", remote.name},
			Dir:  pc.SourceDir,
		}); err != nil {
			return kberrors.ErrFetchFailed.WithMessagef("tag fetch of remote %q failed", remote.name).WithCause(err)
		}
	}
	return nil
}

// addRemote adds a named remote unless it is already registered
func (s *ProvisionStep) addRemote(ctx context.Context, pc *Pipeline, name, url string) error {
	if _, err := pc.Runner.Output(ctx, RunOpts{
		Argv: []string{"git", "remote", "get-url", name},
		Dir:  pc.SourceDir,
	}); err == nil {
		log.Debug("Remote already registered", "remote", name)
		return nil
	}

	if err := pc.Runner.Run(ctx, RunOpts{
		Argv: []string{"git", "remote", "add", name, url},
		Dir:  pc.SourceDir,
	}); err != nil {
		return kberrors.ErrFetchFailed.WithMessagef("failed to add remote %q", name).WithCause(err)
	}
	return nil
}

// confirmReclone asks for the exact string "yes" before a destructive
// re-clone. Empty input, any other answer, or a non-terminal stdin all
// resolve to the default "no".
func confirmReclone(in io.Reader, sourceDir string) (bool, error) {
	if in == nil {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			log.Warn("Standard input is not a terminal, keeping existing directories")
			return false, nil
		}
		in = os.Stdin
	}

	fmt.Printf("Source directory %s already exists.\n", sourceDir)
	fmt.Print("Delete it and the build directory, then re-clone? Type 'yes' to confirm [no]: ")

	reader := bufio.NewReader(in)
	answer, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer = trimNewline(answer)

	return answer == "yes", nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
