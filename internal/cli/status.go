package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"genesis-provision/internal/app"
)

type statusOptions struct {
	Manifest      string
	BuildRoot     string
	InstallPrefix string
}

func newStatusCommand() *cobra.Command {
	opts := statusOptions{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe components and print the presence matrix without installing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "Component manifest path (built-in chain when empty)")
	cmd.Flags().StringVar(&opts.BuildRoot, "build-root", "", "Shared build root for source trees")
	cmd.Flags().StringVar(&opts.InstallPrefix, "install-prefix", "/usr/local", "Install prefix for built components")
	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("build_root", cmd.Flags().Lookup("build-root"))
	_ = viper.BindPFlag("install_prefix", cmd.Flags().Lookup("install-prefix"))
	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, opts statusOptions) error {
	service := newAppService()
	result, err := service.Status(ctx, app.StatusRequest{
		ManifestPath:  resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		BuildRoot:     resolveString(cmd, opts.BuildRoot, "build_root", "build-root"),
		InstallPrefix: resolveString(cmd, opts.InstallPrefix, "install_prefix", "install-prefix"),
	})
	if err != nil {
		return err
	}
	fmt.Print(result.Rendered)
	if !result.Report.ExitOK {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("required components missing")
	}
	return nil
}

func newAppService() app.Service {
	return app.NewService()
}
