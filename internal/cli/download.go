package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soumeh01/vsce-helper/internal/downloader"
	"github.com/soumeh01/vsce-helper/internal/state"
	"github.com/soumeh01/vsce-helper/internal/target"
)

func newDownloadCmd(flags *globalFlags) *cobra.Command {
	var (
		targetFlag string
		dest       string
		cacheDir   string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "download [name]...",
		Short: "Download tools, all of them when no name is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt := target.Host()
			if targetFlag != "" {
				var err error
				if tgt, err = target.Parse(targetFlag); err != nil {
					return err
				}
			}

			a, err := newApp(flags, len(args) == 1)
			if err != nil {
				return err
			}

			root, err := a.toolsRoot(dest)
			if err != nil {
				return err
			}
			cache := a.cfg.CachePath()
			if cmd.Flags().Changed("cache") {
				cache = cacheDir
			}

			names := args
			if len(names) == 0 {
				names = a.registry.Names()
			}
			if len(names) == 0 {
				fmt.Printf("%s No tools configured in %s\n", dim("○"), flags.config)
				return nil
			}

			dl := downloader.New(root, cache, a.registry.Items(), a.logger, downloader.Options{
				MaxParallel: a.cfg.MaxParallel,
			})
			if err := dl.Run(cmd.Context(), names, tgt, force); err != nil {
				fmt.Printf("%s %v\n", red("✗"), err)
				return fmt.Errorf("download failed")
			}

			fmt.Println()
			for _, name := range names {
				if !a.registry.Supports(name, tgt) {
					fmt.Printf("  %s %s %s\n", dim("↳"), name, dim("(not available for "+tgt.String()+")"))
					continue
				}
				dir, _ := dl.Dest(name)
				installed, err := state.New(dir).Read()
				if err != nil || installed == nil {
					continue
				}
				line := fmt.Sprintf("%s %s", green("✓"), bold(name))
				if installed.Version != "" {
					line += bold("-" + installed.Version)
				}
				fmt.Printf("%s\n  %s %s\n", line, cyan("path:"), dir)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetFlag, "target", "t", "", "Target platform as <os>-<arch> (default: host)")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Directory tools are installed into (default: tools_dir)")
	cmd.Flags().StringVar(&cacheDir, "cache", "", "Cache directory, empty to disable (default: cache_dir)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Download even when already up to date")
	return cmd
}
