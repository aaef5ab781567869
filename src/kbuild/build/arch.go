package build

import (
	"path/filepath"
	"runtime"

	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
)

// TargetArch is a supported target architecture token
type TargetArch string

const (
	ArchX86_64  TargetArch = "x86_64"
	ArchAARCH64 TargetArch = "aarch64"
	ArchRISCV64 TargetArch = "riscv64"
)

// ValidArchs returns all supported architecture tokens
func ValidArchs() []TargetArch {
	return []TargetArch{ArchX86_64, ArchAARCH64, ArchRISCV64}
}

// HostArch represents the detected host machine architecture
type HostArch string

const (
	HostArchX86_64  HostArch = "x86_64"
	HostArchAARCH64 HostArch = "aarch64"
	HostArchRISCV64 HostArch = "riscv64"
	HostArchUnknown HostArch = "unknown"
)

// ArchInfo is the resolved build target: the make ARCH identifier, the
// cross-compiler prefix (empty for native builds), and the artifact the
// build must produce for the target.
type ArchInfo struct {
	Token        TargetArch
	MakeArch     string
	CrossCompile string
}

// archRegistry maps target tokens to their make architecture identifier
// and the fixed cross toolchain triplet used when the host differs.
var archRegistry = map[TargetArch]struct {
	makeArch    string
	crossPrefix string
	nativeOnly  bool
}{
	// No x86 cross toolchain is assumed: x86_64 builds only on x86_64.
	ArchX86_64:  {makeArch: "x86_64", nativeOnly: true},
	ArchAARCH64: {makeArch: "arm64", crossPrefix: "aarch64-linux-gnu-"},
	ArchRISCV64: {makeArch: "riscv", crossPrefix: "riscv64-linux-gnu-"},
}

// DetectHostArch returns the architecture of the machine running kbuild
func DetectHostArch() HostArch {
	switch runtime.GOARCH {
	case "amd64":
		return HostArchX86_64
	case "arm64":
		return HostArchAARCH64
	case "riscv64":
		return HostArchRISCV64
	default:
		return HostArchUnknown
	}
}

// ResolveArch maps a target token to its ArchInfo for the given host.
// The cross-compile prefix is empty when host and target match. Targets
// marked native-only are rejected on a foreign host.
func ResolveArch(host HostArch, target TargetArch) (ArchInfo, error) {
	entry, ok := archRegistry[target]
	if !ok {
		return ArchInfo{}, kberrors.ErrUnknownArch.WithMessagef(
			"unsupported target architecture %q (supported: x86_64, aarch64, riscv64)", target)
	}

	info := ArchInfo{Token: target, MakeArch: entry.makeArch}
	if string(host) == string(target) {
		return info, nil
	}

	if entry.nativeOnly {
		return ArchInfo{}, kberrors.ErrNoCrossToolchain.WithMessagef(
			"%s can only be built on an %s host (host is %s)", target, target, host)
	}

	info.CrossCompile = entry.crossPrefix
	return info, nil
}

// ArtifactPath returns the expected output artifact for the target under
// the given build directory. For x86_64 the artifact is the vmlinux
// symbol file; SourceArtifactPath gives its fallback location.
func (a ArchInfo) ArtifactPath(buildDir string) string {
	switch a.Token {
	case ArchAARCH64:
		return filepath.Join(buildDir, "arch", "arm64", "boot", "Image")
	case ArchRISCV64:
		return filepath.Join(buildDir, "arch", "riscv", "boot", "Image")
	default:
		return filepath.Join(buildDir, "vmlinux")
	}
}

// SourceArtifactPath returns the fallback artifact location inside the
// source tree, or empty when the target has no fallback.
func (a ArchInfo) SourceArtifactPath(sourceDir string) string {
	if a.Token == ArchX86_64 {
		return filepath.Join(sourceDir, "vmlinux")
	}
	return ""
}

// Native reports whether the resolved target builds without a cross prefix
func (a ArchInfo) Native() bool {
	return a.CrossCompile == ""
}
