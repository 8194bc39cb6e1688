package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/soumeh01/vsce-helper/internal/asset"
	"github.com/soumeh01/vsce-helper/internal/config"
	"github.com/soumeh01/vsce-helper/internal/fetcher"
	"github.com/soumeh01/vsce-helper/internal/github"
	"github.com/soumeh01/vsce-helper/internal/registry"
	"github.com/soumeh01/vsce-helper/internal/version"
)

type globalFlags struct {
	config  string
	verbose bool
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "vsce-helper",
		Short:         "Download the tools a VS Code extension bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", config.DefaultFile, "Path to the tool configuration")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newDownloadCmd(flags),
		newListCmd(flags),
		newCacheCmd(flags),
		newVersionCmd(),
	)
	return rootCmd
}

type app struct {
	cfg      *config.Config
	registry *registry.Registry
	logger   *log.Logger
}

func newApp(flags *globalFlags, progress bool) (*app, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "vsce-helper",
	})
	if flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, err
	}

	transport := fetcher.New(1*time.Hour,
		fetcher.WithProgress(progress),
		fetcher.WithUserAgent("vsce-helper/"+version.Version),
	)
	client := github.NewClient(
		github.WithBaseURL(cfg.GitHubAPI),
		github.WithToken(cfg.GitHubToken()),
		github.WithUserAgent("vsce-helper/"+version.Version),
	)

	reg, err := registry.New(cfg, asset.NewDeps(transport), client)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, registry: reg, logger: logger}, nil
}

// toolsRoot is the --dest override when given, else tools_dir.
func (a *app) toolsRoot(dest string) (string, error) {
	if dest == "" {
		return a.cfg.ToolsPath(), nil
	}
	return filepath.Abs(dest)
}
