package core

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
	"github.com/sdunnagan/kbuild-centos/src/common/paths"
	"github.com/sdunnagan/kbuild-centos/src/kbuild/build"
	"github.com/sdunnagan/kbuild-centos/src/kbuild/history"
	"github.com/sdunnagan/kbuild-centos/src/kbuild/storage"
)

// Options is the resolved invocation configuration. It is immutable after
// startup except for the architecture fields filled in by resolution.
type Options struct {
	SourceDir string
	BuildDir  string
	Stream    build.Stream
	ArchToken build.TargetArch

	Clone      bool
	Configure  bool
	Backport   bool
	Menuconfig bool
	PatchesDir string

	HistoryPath string
	LogRetain   int

	Publish bool
	Storage storage.Config
}

// resolveOptions builds the run options from viper and validates the
// parts that must be correct before any side effect happens.
func resolveOptions() (Options, error) {
	opts := Options{
		SourceDir:   paths.Expand(viper.GetString("source.dir")),
		BuildDir:    paths.Expand(viper.GetString("build.dir")),
		Stream:      build.Stream(viper.GetString("stream")),
		ArchToken:   build.TargetArch(viper.GetString("arch")),
		Clone:       viper.GetBool("clone"),
		Configure:   viper.GetBool("configure"),
		Backport:    viper.GetBool("backport"),
		Menuconfig:  viper.GetBool("menuconfig"),
		PatchesDir:  paths.Expand(viper.GetString("patches")),
		HistoryPath: viper.GetString("history.path"),
		LogRetain:   viper.GetInt("logs.retain"),
		Publish:     viper.GetBool("publish"),
		Storage: storage.Config{
			Type: viper.GetString("storage.type"),
			Local: storage.LocalConfig{
				BasePath: viper.GetString("storage.local.path"),
			},
			S3: storage.S3Config{
				Endpoint:        viper.GetString("storage.s3.endpoint"),
				Region:          viper.GetString("storage.s3.region"),
				Bucket:          viper.GetString("storage.s3.bucket"),
				AccessKeyID:     viper.GetString("storage.s3.access_key"),
				SecretAccessKey: viper.GetString("storage.s3.secret_key"),
				UsePathStyle:    viper.GetBool("storage.s3.path_style"),
			},
		},
	}

	if opts.SourceDir == "" {
		return opts, kberrors.ErrSourceDirUnset
	}
	if opts.BuildDir == "" {
		return opts, kberrors.ErrBuildDirUnset
	}

	valid := false
	for _, s := range build.ValidStreams() {
		if opts.Stream == s {
			valid = true
			break
		}
	}
	if !valid {
		return opts, kberrors.ErrUnknownStream.WithMessagef(
			"unknown stream %q, expected c9s or c10s", opts.Stream)
	}

	return opts, nil
}

// runBuild executes the orchestration sequence for a single invocation.
func runBuild(ctx context.Context) error {
	opts, err := resolveOptions()
	if err != nil {
		return err
	}

	build.SetLogger(log)

	host := build.DetectHostArch()
	arch, err := build.ResolveArch(host, opts.ArchToken)
	if err != nil {
		return err
	}
	log.Debug("resolved architecture",
		"target", arch.Token, "make_arch", arch.MakeArch, "cross", arch.CrossCompile)

	runner := build.NewHostRunner()
	if err := build.ValidateEnvironment(runner, arch); err != nil {
		return err
	}

	pc := &build.Pipeline{
		SourceDir:  opts.SourceDir,
		BuildDir:   opts.BuildDir,
		Stream:     opts.Stream,
		Arch:       arch,
		PatchesDir: opts.PatchesDir,
		Menuconfig: opts.Menuconfig,
		Backport:   opts.Backport,
		Runner:     runner,
	}

	var steps []build.Step
	if opts.Clone {
		steps = append(steps, &build.ProvisionStep{})
	}
	if opts.Configure {
		steps = append(steps, &build.ConfigureStep{})
	}
	if opts.PatchesDir != "" {
		steps = append(steps, &build.PatchStep{})
	}
	steps = append(steps, &build.CompileStep{})

	runID := uuid.New().String()
	started := time.Now()

	var runErr error
	for _, step := range steps {
		log.Info("running step", "step", step.Name())
		if runErr = step.Run(ctx, pc); runErr != nil {
			break
		}
	}

	recordHistory(opts, pc, runID, time.Since(started))
	build.CompressOldLogs(build.LogsDir(opts.BuildDir), opts.LogRetain)

	if runErr != nil {
		return runErr
	}

	if opts.Publish {
		return publishOutputs(ctx, opts, pc, runID)
	}

	return nil
}

// recordHistory appends the run to the sqlite ledger. Ledger failures are
// warnings, never fatal.
func recordHistory(opts Options, pc *build.Pipeline, runID string, elapsed time.Duration) {
	ledger, err := history.Open(opts.HistoryPath)
	if err != nil {
		log.Warn("failed to open build history", "error", err)
		return
	}
	defer ledger.Close()

	run := history.Run{
		ID:       runID,
		Stream:   string(opts.Stream),
		Arch:     string(opts.ArchToken),
		Duration: elapsed,
	}
	if pc.Report != nil {
		run.Success = pc.Report.Success
		run.LogPath = pc.Report.LogPath
	}

	if err := ledger.Record(&run); err != nil {
		log.Warn("failed to record build history", "error", err)
	}
}

// publishOutputs uploads the built artifact and the build log through the
// configured storage backend.
func publishOutputs(ctx context.Context, opts Options, pc *build.Pipeline, runID string) error {
	publisher, err := storage.NewPublisher(ctx, opts.Storage)
	if err != nil {
		return kberrors.ErrStorageUnavailable.WithCause(err)
	}

	files := []string{
		pc.Arch.ArtifactPath(opts.BuildDir),
	}
	if p := pc.Arch.SourceArtifactPath(opts.SourceDir); p != "" {
		files = append(files, p)
	}
	if pc.Report != nil && pc.Report.LogPath != "" {
		files = append(files, pc.Report.LogPath)
	}

	prefix := path.Join(string(opts.Stream), string(opts.ArchToken), runID)
	if err := publisher.Publish(ctx, prefix, files...); err != nil {
		return kberrors.ErrStorageUploadFailed.WithCause(err)
	}

	backend := publisher.Backend()
	log.Info("published build outputs",
		"backend", backend.Type(), "location", backend.Location(), "prefix", prefix)

	return nil
}
