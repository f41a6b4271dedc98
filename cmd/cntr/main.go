// Command cntr is the external interface described in spec §6: it
// resolves a selector to a PID via pkg/backend, captures a
// pkg/procfs.TargetSnapshot, and hands both to pkg/attach in either
// attach or exec mode.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cntr",
		Short:         "Enter or chroot into any container, regardless of runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newAttachCmd())
	rootCmd.AddCommand(newExecCmd())
	rootCmd.AddCommand(newEnterCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cntr: %v\n", err)
		os.Exit(exitCodeForErr(err))
	}
}
