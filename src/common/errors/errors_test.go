package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestGetExitStatus(t *testing.T) {
	if got := GetExitStatus(nil); got != 0 {
		t.Errorf("GetExitStatus(nil) = %d, want 0", got)
	}
	if got := GetExitStatus(ErrBuildFailed); got != 1 {
		t.Errorf("GetExitStatus(ErrBuildFailed) = %d, want 1", got)
	}
	if got := GetExitStatus(stderrors.New("plain")); got != 1 {
		t.Errorf("GetExitStatus(plain error) = %d, want 1", got)
	}
}

func TestSentinelIdentityAfterDecoration(t *testing.T) {
	cause := stderrors.New("exit status 128")
	err := ErrPatchFailed.WithMessagef("patch %s failed to apply", "0001.patch").WithCause(cause)

	if !Is(err, ErrPatchFailed) {
		t.Error("decorated error should keep its sentinel identity")
	}
	if !strings.Contains(err.Error(), "0001.patch") {
		t.Errorf("custom message lost: %q", err.Error())
	}
	if !stderrors.Is(err, ErrPatchFailed) {
		t.Error("stdlib errors.Is should also match")
	}
	if unwrapped := stderrors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap = %v, want the original cause", unwrapped)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := Wrap(cause, DomainRepo, CodeInternal, "failed to remove source directory")

	if GetDomain(err) != DomainRepo {
		t.Errorf("GetDomain = %q", GetDomain(err))
	}
	if GetCode(err) != CodeInternal {
		t.Errorf("GetCode = %q", GetCode(err))
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause")
	}
	if GetExitStatus(err) != 1 {
		t.Errorf("GetExitStatus = %d, want 1", GetExitStatus(err))
	}
}
