package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set via -ldflags "-X .../commands.version=..." at build time.
var version = "dev"

// VersionCmd prints the router's version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the webx-router version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("webx-router " + version)
	},
}
