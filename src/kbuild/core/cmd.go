// Package core provides the kbuild command line entry point and the
// build orchestration sequence.
package core

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sdunnagan/kbuild-centos/src/common/cli"
	kberrors "github.com/sdunnagan/kbuild-centos/src/common/errors"
	"github.com/sdunnagan/kbuild-centos/src/common/logs"
	"github.com/sdunnagan/kbuild-centos/src/common/version"
	"github.com/sdunnagan/kbuild-centos/src/kbuild/history"
)

var (
	// VersionInfo holds version information - set at build time via ldflags
	VersionInfo = version.New()

	// Global logger instance
	log *logs.Logger

	// Configuration file path
	cfgFile string
)

// Linker variables - these are set via ldflags at build time
// They must be initialized as empty strings or literals for ldflags to work
var (
	Version        = "dev"
	ReleaseVersion = "0.0.0"
	BuildDate      = "unknown"
	GitCommit      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kbuild",
	Short: "CentOS Stream kernel build tool",
	Long: `kbuild clones, configures, patches and builds a CentOS Stream kernel
tree for a target architecture, writing a timestamped build log and
recording each run in a local history ledger.

The kernel source tree and the out-of-tree build directory come from the
KBUILD_SOURCE_DIR and KBUILD_BUILD_DIR environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(VersionInfo.Full())
	},
}

// Execute runs the root command
func Execute() {
	// Populate VersionInfo from linker variables
	VersionInfo.Version = Version
	VersionInfo.ReleaseVersion = ReleaseVersion
	VersionInfo.BuildDate = BuildDate
	VersionInfo.GitCommit = GitCommit

	if err := rootCmd.Execute(); err != nil {
		if log != nil {
			log.Error(err.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(kberrors.GetExitStatus(err))
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Configuration file flag
	cli.RegisterConfigFlag(rootCmd, &cfgFile, "~/.kbuild/kbuild.yaml")

	// Build selection flags
	rootCmd.Flags().StringP("arch", "a", "x86_64", "Target architecture: x86_64, aarch64 or riscv64")
	rootCmd.Flags().StringP("stream", "s", "c9s", "Distribution variant: c9s or c10s")
	rootCmd.Flags().BoolP("clone", "c", false, "Destroy and reclone the kernel source tree")
	rootCmd.Flags().BoolP("configure", "f", false, "Regenerate and seed the kernel configuration")
	rootCmd.Flags().BoolP("backport", "b", false, "Register backporting remotes after cloning")
	rootCmd.Flags().BoolP("menuconfig", "m", false, "Launch menuconfig after configuration")
	rootCmd.Flags().StringP("patches", "p", "", "Directory of *.patch files to apply before building")

	// Logging flags (using common helper)
	cli.RegisterLogFlags(rootCmd)

	// History flags
	rootCmd.Flags().String("history-db", history.DefaultPath, "Path to the build history database")
	rootCmd.Flags().Int("log-retain", 10, "Number of uncompressed build logs to keep")

	// Publishing flags
	rootCmd.Flags().Bool("publish", false, "Publish the built artifact and log to storage")
	rootCmd.Flags().String("storage-type", "local", "Storage backend type: 'local' or 's3'")
	rootCmd.Flags().String("storage-path", "~/.kbuild/artifacts", "Local storage path (for local backend)")
	rootCmd.Flags().String("s3-endpoint", "", "S3-compatible storage endpoint URL")
	rootCmd.Flags().String("s3-region", "us-east-1", "S3 region")
	rootCmd.Flags().String("s3-bucket", "kbuild-artifacts", "S3 bucket for build artifacts")
	rootCmd.Flags().String("s3-access-key", "", "S3 access key ID")
	rootCmd.Flags().String("s3-secret-key", "", "S3 secret access key")
	rootCmd.Flags().Bool("s3-path-style", true, "Use path-style addressing for S3")

	// Bind flags to viper
	_ = viper.BindPFlag("arch", rootCmd.Flags().Lookup("arch"))
	_ = viper.BindPFlag("stream", rootCmd.Flags().Lookup("stream"))
	_ = viper.BindPFlag("clone", rootCmd.Flags().Lookup("clone"))
	_ = viper.BindPFlag("configure", rootCmd.Flags().Lookup("configure"))
	_ = viper.BindPFlag("backport", rootCmd.Flags().Lookup("backport"))
	_ = viper.BindPFlag("menuconfig", rootCmd.Flags().Lookup("menuconfig"))
	_ = viper.BindPFlag("patches", rootCmd.Flags().Lookup("patches"))
	_ = viper.BindPFlag("history.path", rootCmd.Flags().Lookup("history-db"))
	_ = viper.BindPFlag("logs.retain", rootCmd.Flags().Lookup("log-retain"))
	_ = viper.BindPFlag("publish", rootCmd.Flags().Lookup("publish"))
	_ = viper.BindPFlag("storage.type", rootCmd.Flags().Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local.path", rootCmd.Flags().Lookup("storage-path"))
	_ = viper.BindPFlag("storage.s3.endpoint", rootCmd.Flags().Lookup("s3-endpoint"))
	_ = viper.BindPFlag("storage.s3.region", rootCmd.Flags().Lookup("s3-region"))
	_ = viper.BindPFlag("storage.s3.bucket", rootCmd.Flags().Lookup("s3-bucket"))
	_ = viper.BindPFlag("storage.s3.access_key", rootCmd.Flags().Lookup("s3-access-key"))
	_ = viper.BindPFlag("storage.s3.secret_key", rootCmd.Flags().Lookup("s3-secret-key"))
	_ = viper.BindPFlag("storage.s3.path_style", rootCmd.Flags().Lookup("s3-path-style"))

	// Set defaults
	viper.SetDefault("arch", "x86_64")
	viper.SetDefault("stream", "c9s")
	viper.SetDefault("source.dir", "")
	viper.SetDefault("build.dir", "")
	viper.SetDefault("history.path", history.DefaultPath)
	viper.SetDefault("logs.retain", 10)
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.path", "~/.kbuild/artifacts")
	viper.SetDefault("storage.s3.region", "us-east-1")
	viper.SetDefault("storage.s3.bucket", "kbuild-artifacts")
	viper.SetDefault("storage.s3.path_style", true)
}

// initConfig reads in config file and ENV variables if set
func initConfig() error {
	opts := cli.ConfigOptions{
		ConfigName: "kbuild",
		ConfigType: "yaml",
		EnvPrefix:  "KBUILD",
		SearchPaths: []string{
			"/etc/kbuild",
			"~/.kbuild",
		},
	}
	opts.ConfigFile = cfgFile

	if err := cli.InitConfig(opts); err != nil {
		return err
	}

	// Initialize logger using common helper
	log = cli.InitLogger("kbuild")

	return nil
}
