package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/soumeh01/vsce-helper/internal/target"
	"github.com/soumeh01/vsce-helper/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of vsce-helper",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s%s%s %s\n", bold("vsce-helper"), bold("-"), bold(version.Version),
				dim(fmt.Sprintf("(%s/%s, target %s)", runtime.GOOS, runtime.GOARCH, target.Host())))
		},
	}
}
