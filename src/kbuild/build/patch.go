package build

import (
	"context"
	"path/filepath"
	"sort"

	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
	"github.com/sdunnagan/kbuild-centos/src/common/paths"
)

// PatchStep applies every *.patch file from the patches directory as a
// commit, in lexical order, aborting the whole run on the first failure.
type PatchStep struct{}

// Name returns the step name
func (s *PatchStep) Name() string { return "patch" }

// Run applies the patch series. An empty directory is an error, not a
// silent no-op. A failed apply aborts the in-progress mailbox state
// before terminating so the tree is not left mid-apply.
func (s *PatchStep) Run(ctx context.Context, pc *Pipeline) error {
	if !paths.IsDir(pc.PatchesDir) {
		return kberrors.ErrPatchesDirMissing.WithMessagef("patches directory %s does not exist", pc.PatchesDir)
	}

	patches, err := filepath.Glob(filepath.Join(pc.PatchesDir, "*.patch"))
	if err != nil {
		return kberrors.Wrap(err, kberrors.DomainPatch, kberrors.CodeInternal, "patch glob failed")
	}
	if len(patches) == 0 {
		return kberrors.ErrNoPatches.WithMessagef("no *.patch files in %s", pc.PatchesDir)
	}
	sort.Strings(patches)

	for _, patch := range patches {
		log.Info("Applying patch", "patch", filepath.Base(patch))
		if err := pc.Runner.Run(ctx, RunOpts{
			Argv: []string{"git", "am", patch},
			Dir:  pc.SourceDir,
		}); err != nil {
			// Leave the tree out of the conflicted mailbox state
			if abortErr := pc.Runner.Run(ctx, RunOpts{
				Argv: []string{"git", "am", "--abort"},
				Dir:  pc.SourceDir,
			}); abortErr != nil {
				log.Error("Failed to abort in-progress apply", "error", abortErr)
			}
			return kberrors.ErrPatchFailed.WithMessagef("patch %s failed to apply", filepath.Base(patch)).WithCause(err)
		}
	}

	log.Info("Applied patch series", "count", len(patches))
	return nil
}
