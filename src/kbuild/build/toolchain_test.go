package build

import (
	"strings"
	"testing"

	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
)

func TestRequiredTools(t *testing.T) {
	native, _ := ResolveArch(HostArchX86_64, ArchX86_64)
	tools := RequiredTools(native)
	if tools[len(tools)-1] != "gcc" {
		t.Errorf("expected plain gcc for native build, got %q", tools[len(tools)-1])
	}

	cross, _ := ResolveArch(HostArchX86_64, ArchAARCH64)
	tools = RequiredTools(cross)
	if tools[len(tools)-1] != "aarch64-linux-gnu-gcc" {
		t.Errorf("expected prefixed gcc for cross build, got %q", tools[len(tools)-1])
	}
}

func TestValidateEnvironment(t *testing.T) {
	arch, _ := ResolveArch(HostArchX86_64, ArchX86_64)

	r := newFakeRunner()
	if err := ValidateEnvironment(r, arch); err != nil {
		t.Fatalf("unexpected error with all tools present: %v", err)
	}

	r.missing["ctags"] = true
	err := ValidateEnvironment(r, arch)
	if !kberrors.Is(err, kberrors.ErrToolMissing) {
		t.Fatalf("expected ErrToolMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "ctags") {
		t.Errorf("error should name the missing tool, got %q", err.Error())
	}
}

func TestValidateEnvironment_CrossCompiler(t *testing.T) {
	arch, _ := ResolveArch(HostArchX86_64, ArchRISCV64)

	r := newFakeRunner()
	r.missing["riscv64-linux-gnu-gcc"] = true

	err := ValidateEnvironment(r, arch)
	if !kberrors.Is(err, kberrors.ErrToolMissing) {
		t.Fatalf("expected ErrToolMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "riscv64-linux-gnu-gcc") {
		t.Errorf("error should name the cross compiler, got %q", err.Error())
	}
}
