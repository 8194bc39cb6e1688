package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soumeh01/vsce-helper/internal/cache"
	"github.com/soumeh01/vsce-helper/internal/config"
)

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the download cache",
	}
	cmd.AddCommand(newCacheSizeCmd(flags), newCacheClearCmd(flags))
	return cmd
}

func openCache(flags *globalFlags) (*cache.DiskCache, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, err
	}
	if cfg.CachePath() == "" {
		return nil, nil
	}
	return cache.New(cfg.CachePath()), nil
}

func newCacheSizeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Show how much the cache holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(flags)
			if err != nil {
				return err
			}
			if c == nil {
				fmt.Printf("%s No cache_dir configured\n", dim("○"))
				return nil
			}

			size, err := c.Size()
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", cyan("cache:"), c.Dir())
			fmt.Printf("%s %s\n", cyan("size:"), formatSize(size))

			hosts, err := c.Hosts()
			if err != nil {
				return err
			}
			for _, h := range hosts {
				fmt.Printf("  %s %s\n", dim("↳"), h)
			}
			return nil
		},
	}
}

func newCacheClearCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove everything from the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(flags)
			if err != nil {
				return err
			}
			if c == nil {
				fmt.Printf("%s No cache_dir configured\n", dim("○"))
				return nil
			}

			size, _ := c.Size()
			if err := c.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			fmt.Printf("%s Cache cleared (%s freed)\n", green("✓"), formatSize(size))
			return nil
		},
	}
}
