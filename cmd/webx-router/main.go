// Command webx-router runs the multi-tenant router and session
// supervisor described in this module's design documents.
package main

import (
	"fmt"
	"os"

	"github.com/ILLGrenoble/webx-router/cmd/webx-router/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
