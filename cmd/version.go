package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// NewCmdVersion creates the version command.
func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the repolift version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("repolift %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
