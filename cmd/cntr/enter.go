package main

import (
	"os"

	"github.com/cntrtool/cntr/pkg/attach"
	"github.com/cntrtool/cntr/pkg/daemon"
	"github.com/spf13/cobra"
)

func newEnterCmd() *cobra.Command {
	var baseDir string

	cmd := &cobra.Command{
		Use:   "enter [-- COMMAND [ARG...]]",
		Short: "Join an already-running cntr attach session",
		Long: `enter connects to the .exec.sock left listening by "cntr attach"
inside base_dir, and runs a second command in the same attach session
without re-resolving the container, re-reading its /proc state or
rebuilding the mount overlay. The session re-enters its namespaces and
re-applies credentials, capabilities, cgroups and security context for
each such command.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := baseDir
			if dir == "" {
				dir = os.Getenv("CNTR_BASE_DIR")
			}
			if dir == "" {
				dir = attach.DefaultBaseDir
			}
			// enter only ever joins an attach session (exec mode never
			// starts the .exec.sock daemon), so it defaults the same way
			// attach does.
			command := splitCommand(attach.ModeAttach, args)
			exitCode, err := daemon.Enter(dir, command, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			os.Exit(exitCode)
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&baseDir, "base-dir", "", "base_dir of the attach session to join (default: "+attach.DefaultBaseDir+")")
	return cmd
}
