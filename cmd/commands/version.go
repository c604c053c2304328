package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time through -ldflags.
var Version = "dev"

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}
