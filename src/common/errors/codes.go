package errors

// Common error codes used across domains
const (
	CodeNotFound       Code = "not_found"
	CodeInvalidRequest Code = "invalid_request"
	CodeToolMissing    Code = "tool_missing"
	CodeCommandFailed  Code = "command_failed"
	CodeAborted        Code = "aborted"
	CodeInternal       Code = "internal_error"
	CodeUnavailable    Code = "unavailable"
)

// ============================================================================
// Invocation configuration errors
// ============================================================================

var (
	// ErrSourceDirUnset is returned when the kernel source directory variable is missing
	ErrSourceDirUnset = New(DomainConfig, "source_dir_unset",
		"Kernel source directory is not set (KBUILD_SOURCE_DIR)")

	// ErrBuildDirUnset is returned when the build directory variable is missing
	ErrBuildDirUnset = New(DomainConfig, "build_dir_unset",
		"Kernel build directory is not set (KBUILD_BUILD_DIR)")

	// ErrUnknownStream is returned for an unrecognized distribution variant
	ErrUnknownStream = New(DomainConfig, "unknown_stream",
		"Unknown distribution stream variant")
)

// ============================================================================
// Environment errors
// ============================================================================

var (
	// ErrToolMissing is returned when a required external tool is not on PATH
	ErrToolMissing = New(DomainEnv, CodeToolMissing,
		"Required tool not found on PATH")
)

// ============================================================================
// Architecture errors
// ============================================================================

var (
	// ErrUnknownArch is returned for an unsupported architecture token
	ErrUnknownArch = New(DomainArch, "unknown_arch",
		"Unsupported target architecture")

	// ErrNoCrossToolchain is returned when the target only supports native builds
	ErrNoCrossToolchain = New(DomainArch, "no_cross_toolchain",
		"Target architecture can only be built on a matching host")
)

// ============================================================================
// Repository errors
// ============================================================================

var (
	// ErrCloneDeclined is returned when the destructive re-clone is not confirmed
	ErrCloneDeclined = New(DomainRepo, CodeAborted,
		"Re-clone declined, source and build directories left untouched")

	// ErrCloneFailed is returned when the git clone fails
	ErrCloneFailed = New(DomainRepo, "clone_failed",
		"Failed to clone kernel repository")

	// ErrFetchFailed is returned when fetching a backporting remote fails
	ErrFetchFailed = New(DomainRepo, "fetch_failed",
		"Failed to fetch backporting remote")
)

// ============================================================================
// Configuration errors
// ============================================================================

var (
	// ErrNoConfigFragment is returned when no generated fragment matches the target
	ErrNoConfigFragment = New(DomainKconfig, CodeNotFound,
		"No configuration fragment matches the target architecture")

	// ErrConfigFailed is returned when a configuration make target fails
	ErrConfigFailed = New(DomainKconfig, CodeCommandFailed,
		"Kernel configuration failed")

	// ErrTagsFailed is returned when the ctags index regeneration fails
	ErrTagsFailed = New(DomainKconfig, "tags_failed",
		"Failed to regenerate the source navigation index")
)

// ============================================================================
// Patch errors
// ============================================================================

var (
	// ErrNoPatches is returned when the patches directory contains no *.patch files
	ErrNoPatches = New(DomainPatch, "no_patches",
		"Patches directory contains no *.patch files")

	// ErrPatchesDirMissing is returned when the supplied patches directory does not exist
	ErrPatchesDirMissing = New(DomainPatch, CodeNotFound,
		"Patches directory does not exist")

	// ErrPatchFailed is returned when a patch fails to apply
	ErrPatchFailed = New(DomainPatch, "apply_failed",
		"Failed to apply patch")
)

// ============================================================================
// Build errors
// ============================================================================

var (
	// ErrBuildFailed is returned when the kernel make invocation exits nonzero
	ErrBuildFailed = New(DomainBuild, CodeCommandFailed,
		"Kernel build failed")

	// ErrArtifactMissing is returned when make exits zero but the artifact is absent
	ErrArtifactMissing = New(DomainBuild, "artifact_missing",
		"Build reported success but the expected artifact is absent")
)

// ============================================================================
// Storage errors
// ============================================================================

var (
	// ErrStorageUploadFailed is returned when publishing an artifact fails
	ErrStorageUploadFailed = New(DomainStorage, "upload_failed",
		"Failed to upload artifact to storage")

	// ErrStorageUnavailable is returned when the storage backend is unavailable
	ErrStorageUnavailable = New(DomainStorage, CodeUnavailable,
		"Storage backend unavailable")
)
