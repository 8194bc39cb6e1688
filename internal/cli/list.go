package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soumeh01/vsce-helper/internal/state"
	"github.com/soumeh01/vsce-helper/internal/target"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var (
		targetFlag string
		dest       string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured tools and what is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt := target.Host()
			if targetFlag != "" {
				var err error
				if tgt, err = target.Parse(targetFlag); err != nil {
					return err
				}
			}

			a, err := newApp(flags, false)
			if err != nil {
				return err
			}

			root, err := a.toolsRoot(dest)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			items := a.registry.Items()
			if len(items) == 0 {
				fmt.Fprintf(out, "\n%s No tools configured\n", dim("○"))
				return nil
			}

			fmt.Fprintf(out, "Tools for %s:\n\n", tgt)
			for _, item := range items {
				dir := filepath.Join(root, item.Destination)
				line := fmt.Sprintf(" %s", bold(item.Name))

				installed, err := state.New(dir).Read()
				switch {
				case err != nil:
					line += fmt.Sprintf("  %s", red(err))
				case installed == nil:
					line += fmt.Sprintf("  %s", dim("not installed"))
				default:
					v := installed.Version
					if v == "" {
						v = "unversioned"
					}
					line += fmt.Sprintf("  %s %s", v, dim("("+installed.Target+")"))
					if installed.Target != tgt.String() {
						line += fmt.Sprintf("  %s", yellow("↻ target differs"))
					}
				}
				if !a.registry.Supports(item.Name, tgt) {
					line += fmt.Sprintf("  %s", dim("unsupported"))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetFlag, "target", "t", "", "Target platform as <os>-<arch> (default: host)")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Directory tools are installed into (default: tools_dir)")
	return cmd
}
