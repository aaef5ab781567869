package build

import (
	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
)

// commonBuildDeps are tools required regardless of target architecture.
var commonBuildDeps = []string{"git", "make", "ctags", "bc", "flex", "bison"}

// RequiredTools returns the binaries the orchestration needs on PATH for
// the resolved target. Cross builds additionally need the prefixed gcc.
func RequiredTools(arch ArchInfo) []string {
	tools := append([]string(nil), commonBuildDeps...)
	tools = append(tools, arch.CrossCompile+"gcc")
	return tools
}

// ValidateEnvironment checks that every required tool resolves on the
// execution path, failing on the first missing one. Pure precondition
// check, no retries.
func ValidateEnvironment(r Runner, arch ArchInfo) error {
	for _, tool := range RequiredTools(arch) {
		if _, err := r.LookPath(tool); err != nil {
			return kberrors.ErrToolMissing.WithMessagef("required tool %q not found on PATH", tool)
		}
	}
	return nil
}
