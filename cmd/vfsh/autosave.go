package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/codex-vfs/vfsh/internal/autosave"
)

func autosaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autosave",
		Short: "Run the autosave tick loop, or trigger a one-shot flush or recovery snapshot",
	}
	cmd.AddCommand(autosaveRunCmd(), autosaveFlushCmd(), autosaveRecoverCmd())
	return cmd
}

func autosaveRunCmd() *cobra.Command {
	var recoveryPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tick once a second, flushing dirty overlays after a quiet delay (Ctrl-C to stop)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()

			saver := autosave.NewSaver(s.Vfs, snapshotFlag)
			saver.Journal = s.Journal
			saver.DelaySeconds = s.Config.AutosaveDelaySeconds
			saver.CrashRecoveryIntervalSeconds = s.Config.CrashRecoveryIntervalSeconds
			if recoveryPath != "" {
				saver.RecoveryPath = recoveryPath
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			fmt.Printf("autosave running (delay=%ds, crash-recovery=%ds); Ctrl-C to stop\n", saver.DelaySeconds, saver.CrashRecoveryIntervalSeconds)
			err = saver.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&recoveryPath, "recovery-path", "", "crash-recovery snapshot path (default ./.vfsh/recovery.vfs)")
	return cmd
}

func autosaveFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Force-write overlay 0 to the snapshot file now, regardless of dirty state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			saver := autosave.NewSaver(s.Vfs, snapshotFlag)
			saver.Journal = s.Journal
			if err := saver.Flush(); err != nil {
				return err
			}
			fmt.Printf("flushed to %s\n", snapshotFlag)
			return nil
		},
	}
}

func autosaveRecoverCmd() *cobra.Command {
	var recoveryPath string
	cmd := &cobra.Command{
		Use:   "snapshot-now",
		Short: "Write an independent crash-recovery snapshot now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			saver := autosave.NewSaver(s.Vfs, snapshotFlag)
			saver.Journal = s.Journal
			if recoveryPath != "" {
				saver.RecoveryPath = recoveryPath
			}
			if err := saver.SaveRecoverySnapshot(); err != nil {
				return err
			}
			fmt.Printf("wrote recovery snapshot to %s\n", saver.RecoveryPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&recoveryPath, "recovery-path", "", "crash-recovery snapshot path (default ./.vfsh/recovery.vfs)")
	return cmd
}
