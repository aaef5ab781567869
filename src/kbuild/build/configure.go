package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
)

// configOverrides is the fixed set of options forced off on top of the
// seeded configuration. Unconditional policy, not user-configurable:
// warnings-as-errors breaks patched trees, lockdown rejects unsigned
// test kernels, and the two debug-info formats slow incremental builds.
var configOverrides = []string{
	"WERROR",
	"SECURITY_LOCKDOWN_LSM",
	"DEBUG_INFO_BTF",
	"DEBUG_INFO_DWARF5",
}

// ctagsLanguages and ctagsExcludes restrict the source navigation index
// to kernel source, skipping build and version-control artifacts.
var (
	ctagsLanguages = "C,C++,Asm,Make"
	ctagsExcludes  = []string{".git", "*.o", "*.a", "*.so", "*.mod.c"}
)

// ConfigureStep seeds the build-directory kernel configuration from a
// distribution-provided fragment and normalizes it.
type ConfigureStep struct{}

// Name returns the step name
func (s *ConfigureStep) Name() string { return "configure" }

// Run recreates the build directory, generates and selects a
// distribution configuration fragment, applies the fixed overrides,
// normalizes the configuration, optionally opens menuconfig, and
// regenerates the ctags index.
func (s *ConfigureStep) Run(ctx context.Context, pc *Pipeline) error {
	// Clean base: the build directory is recreated from scratch
	if err := os.RemoveAll(pc.BuildDir); err != nil {
		return kberrors.Wrap(err, kberrors.DomainKconfig, kberrors.CodeInternal, "failed to remove build directory")
	}
	if err := os.MkdirAll(pc.BuildDir, 0755); err != nil {
		return kberrors.Wrap(err, kberrors.DomainKconfig, kberrors.CodeInternal, "failed to create build directory")
	}

	log.Info("Generating distribution configuration fragments")
	if err := pc.Runner.Run(ctx, RunOpts{
		Argv: []string{"make", "dist-configs"},
		Dir:  pc.SourceDir,
	}); err != nil {
		return kberrors.ErrConfigFailed.WithMessage("make dist-configs failed").WithCause(err)
	}

	fragment, err := selectConfigFragment(pc.SourceDir, pc.Arch)
	if err != nil {
		return err
	}
	pc.ConfigFragment = fragment
	if pc.Report != nil {
		pc.Report.ConfigFragment = fragment
	}
	log.Info("Selected configuration fragment", "fragment", filepath.Base(fragment))

	dotConfig := filepath.Join(pc.BuildDir, ".config")
	if err := copyFile(fragment, dotConfig); err != nil {
		return kberrors.Wrap(err, kberrors.DomainKconfig, kberrors.CodeInternal, "failed to seed .config")
	}

	// The tree's own config-editing helper toggles the fixed overrides
	argv := []string{filepath.Join("scripts", "config"), "--file", dotConfig}
	for _, opt := range configOverrides {
		argv = append(argv, "-d", opt)
	}
	if err := pc.Runner.Run(ctx, RunOpts{Argv: argv, Dir: pc.SourceDir}); err != nil {
		return kberrors.ErrConfigFailed.WithMessage("scripts/config overrides failed").WithCause(err)
	}

	log.Info("Cleaning source tree", "arch", pc.Arch.MakeArch)
	if err := pc.Runner.Run(ctx, RunOpts{
		Argv: []string{"make", "ARCH=" + pc.Arch.MakeArch, "mrproper"},
		Dir:  pc.SourceDir,
	}); err != nil {
		return kberrors.ErrConfigFailed.WithMessage("make mrproper failed").WithCause(err)
	}

	log.Info("Normalizing configuration (olddefconfig)")
	if err := pc.Runner.Run(ctx, RunOpts{
		Argv: []string{"make", "ARCH=" + pc.Arch.MakeArch, "O=" + pc.BuildDir, "olddefconfig"},
		Dir:  pc.SourceDir,
	}); err != nil {
		return kberrors.ErrConfigFailed.WithMessage("make olddefconfig failed").WithCause(err)
	}

	if pc.Menuconfig {
		if err := s.runMenuconfig(ctx, pc); err != nil {
			return err
		}
	}

	return regenerateTags(ctx, pc)
}

// runMenuconfig launches the interactive configuration editor attached to
// the terminal, passing the cross-compile prefix when non-empty.
func (s *ConfigureStep) runMenuconfig(ctx context.Context, pc *Pipeline) error {
	argv := []string{"make", "ARCH=" + pc.Arch.MakeArch, "O=" + pc.BuildDir}
	if !pc.Arch.Native() {
		argv = append(argv, "CROSS_COMPILE="+pc.Arch.CrossCompile)
	}
	argv = append(argv, "menuconfig")

	log.Info("Launching menuconfig")
	if err := pc.Runner.Run(ctx, RunOpts{
		Argv:   argv,
		Dir:    pc.SourceDir,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}); err != nil {
		return kberrors.ErrConfigFailed.WithMessage("make menuconfig failed").WithCause(err)
	}
	return nil
}

// selectConfigFragment picks the generated debug fragment matching the
// target architecture. Fragment names encode the kernel version line, so
// with multiple candidates the highest version wins, compared field by
// field so 10.x orders after 9.x.
func selectConfigFragment(sourceDir string, arch ArchInfo) (string, error) {
	pattern := filepath.Join(sourceDir, "redhat", "configs",
		fmt.Sprintf("kernel-*-%s-debug.config", arch.MakeArch))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", kberrors.Wrap(err, kberrors.DomainKconfig, kberrors.CodeInternal, "fragment glob failed")
	}
	if len(matches) == 0 {
		return "", kberrors.ErrNoConfigFragment.WithMessagef(
			"no fragment matches %s", pattern)
	}
	suffix := fmt.Sprintf("-%s-debug.config", arch.MakeArch)
	sort.Slice(matches, func(i, j int) bool {
		return versionLess(fragmentVersion(matches[i], suffix), fragmentVersion(matches[j], suffix))
	})
	return matches[len(matches)-1], nil
}

// fragmentVersion extracts the kernel version field from a fragment name
func fragmentVersion(path, suffix string) string {
	name := filepath.Base(path)
	name = strings.TrimPrefix(name, "kernel-")
	return strings.TrimSuffix(name, suffix)
}

// versionLess orders version strings by their dot- and dash-separated
// fields, numerically when both fields are numeric.
func versionLess(a, b string) bool {
	sep := func(r rune) bool { return r == '.' || r == '-' }
	af := strings.FieldsFunc(a, sep)
	bf := strings.FieldsFunc(b, sep)
	for i := 0; i < len(af) && i < len(bf); i++ {
		an, aerr := strconv.Atoi(af[i])
		bn, berr := strconv.Atoi(bf[i])
		if aerr == nil && berr == nil {
			if an != bn {
				return an < bn
			}
			continue
		}
		if af[i] != bf[i] {
			return af[i] < bf[i]
		}
	}
	return len(af) < len(bf)
}

// regenerateTags rebuilds the code-navigation index over the source tree.
// Failure here is fatal, matching the rest of the configure step.
func regenerateTags(ctx context.Context, pc *Pipeline) error {
	argv := []string{"ctags", "-R", "--languages=" + ctagsLanguages}
	for _, ex := range ctagsExcludes {
		argv = append(argv, "--exclude="+ex)
	}
	argv = append(argv, "-f", filepath.Join(pc.BuildDir, "tags"), pc.SourceDir)

	log.Info("Regenerating source navigation index")
	if err := pc.Runner.Run(ctx, RunOpts{Argv: argv}); err != nil {
		return kberrors.ErrTagsFailed.WithCause(err)
	}
	return nil
}

// copyFile copies src to dst, creating or truncating dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
