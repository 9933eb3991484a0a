package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"genesis-provision/internal/app"
)

type provisionOptions struct {
	Manifest      string
	BuildRoot     string
	InstallPrefix string
	ProfileFile   string
	Transcript    string
	Jobs          int
	NoSudo        bool
	StatusOnly    bool
}

func newProvisionCommand() *cobra.Command {
	opts := provisionOptions{}
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Probe, build, and install missing toolchain components",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProvision(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "Component manifest path (built-in chain when empty)")
	cmd.Flags().StringVar(&opts.BuildRoot, "build-root", "", "Shared build root for source trees")
	cmd.Flags().StringVar(&opts.InstallPrefix, "install-prefix", "/usr/local", "Install prefix for built components")
	cmd.Flags().StringVar(&opts.ProfileFile, "profile-file", "", "Shell profile receiving toolchain exports")
	cmd.Flags().StringVar(&opts.Transcript, "transcript", "", "Run transcript log path")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 0, "Build job count (0 = logical CPUs)")
	cmd.Flags().BoolVar(&opts.NoSudo, "no-sudo", false, "Never prefix privileged steps with sudo")
	cmd.Flags().BoolVar(&opts.StatusOnly, "status-only", false, "Probe and report without installing")

	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("build_root", cmd.Flags().Lookup("build-root"))
	_ = viper.BindPFlag("install_prefix", cmd.Flags().Lookup("install-prefix"))
	_ = viper.BindPFlag("profile_file", cmd.Flags().Lookup("profile-file"))
	_ = viper.BindPFlag("transcript", cmd.Flags().Lookup("transcript"))
	_ = viper.BindPFlag("jobs", cmd.Flags().Lookup("jobs"))
	_ = viper.BindPFlag("no_sudo", cmd.Flags().Lookup("no-sudo"))
	_ = viper.BindPFlag("status_only", cmd.Flags().Lookup("status-only"))

	return cmd
}

func runProvision(ctx context.Context, cmd *cobra.Command, opts provisionOptions) error {
	if resolveBool(cmd, opts.StatusOnly, "status_only", "status-only") {
		return runStatus(ctx, cmd, statusOptions{
			Manifest:      opts.Manifest,
			BuildRoot:     opts.BuildRoot,
			InstallPrefix: opts.InstallPrefix,
		})
	}
	service := newAppService()
	result, err := service.Provision(ctx, app.ProvisionRequest{
		ManifestPath:  resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		BuildRoot:     resolveString(cmd, opts.BuildRoot, "build_root", "build-root"),
		InstallPrefix: resolveString(cmd, opts.InstallPrefix, "install_prefix", "install-prefix"),
		ProfilePath:   resolveString(cmd, opts.ProfileFile, "profile_file", "profile-file"),
		Transcript:    resolveString(cmd, opts.Transcript, "transcript", "transcript"),
		Jobs:          resolveInt(cmd, opts.Jobs, "jobs", "jobs"),
		Sudo:          !resolveBool(cmd, opts.NoSudo, "no_sudo", "no-sudo"),
	})
	if result.Rendered != "" {
		fmt.Print(result.Rendered)
	}
	if err != nil {
		return err
	}
	if result.Transcript != "" {
		fmt.Printf("transcript: %s\n", result.Transcript)
	}
	return nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	if viper.IsSet(key) && viper.GetString(key) != "" {
		return viper.GetString(key)
	}
	return value
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return value
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return value
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
