package main

import (
	"context"
	"os"

	"github.com/cntrtool/cntr/pkg/attach"
	"github.com/spf13/cobra"
)

func newAttachCmd() *cobra.Command {
	f := &sharedFlags{}

	cmd := &cobra.Command{
		Use:   "attach CONTAINER [-- COMMAND [ARG...]]",
		Short: "Enter a container's namespaces, host root stays at /",
		Long: `attach joins the target's namespaces while keeping the host
filesystem visible at /; the container's own root becomes visible at
--base-dir (default /var/lib/cntr). Use this when the toolbox you want
to run (a shell, strace, gdb) does not exist inside the container.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttachOrExec(attach.ModeAttach, f, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	f.register(cmd.Flags())
	return cmd
}

func newExecCmd() *cobra.Command {
	f := &sharedFlags{}

	cmd := &cobra.Command{
		Use:   "exec CONTAINER [-- COMMAND [ARG...]]",
		Short: "Chroot into a container's root",
		Long: `exec joins the target's namespaces and chroots into its root,
the ordinary "nsenter"-style perspective: only the container's own
filesystem is visible. Use this when the toolbox you want to run
already exists inside the container.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttachOrExec(attach.ModeExec, f, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	f.register(cmd.Flags())
	return cmd
}

func runAttachOrExec(mode attach.Mode, f *sharedFlags, args []string) error {
	if err := checkPrivilege(); err != nil {
		return err
	}

	selector := args[0]
	command := splitCommand(mode, args[1:])
	order := f.backendOrder()

	snapshot, err := resolveAndCapture(context.Background(), selector, order)
	if err != nil {
		return err
	}
	defer snapshot.Close()

	backendNames := make([]string, len(order))
	for i, k := range order {
		backendNames[i] = string(k)
	}

	req := &attach.Request{
		Mode:          mode,
		Selector:      selector,
		BackendsToTry: backendNames,
		Command:       command,
		EffectiveUser: f.effectiveUser,
		SecurityMode:  f.securityMode(),
		BaseDir:       f.resolvedBaseDir(),
		AllowSetcap:   allowSetcap(),
	}

	exitCode, runErr := attach.Run(req, snapshot, attach.Streams{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if runErr != nil {
		os.Exit(exitCodeForErr(runErr))
	}
	os.Exit(exitCode)
	return nil
}
