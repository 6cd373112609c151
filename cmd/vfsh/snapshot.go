package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codex-vfs/vfsh/internal/snapshot"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, inspect, and enumerate the overlay snapshot file",
	}
	cmd.AddCommand(snapshotSaveCmd(), snapshotLsCmd(), snapshotInfoCmd())
	return cmd
}

func snapshotSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write overlay 0 to the snapshot file (a no-op load+save round trip)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("saved %s\n", snapshotFlag)
			return nil
		},
	}
}

func snapshotLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [root]",
		Short: "Enumerate every path under root (default /) in overlay 0",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "/"
			if len(args) == 1 {
				root = args[0]
			}
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			paths, err := s.Vfs.Enumerate(root, 0)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func snapshotInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the snapshot file's header (version, source file/hash)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(snapshotFlag)
			if err != nil {
				return err
			}
			defer f.Close()
			result, err := snapshot.Load(f)
			if err != nil {
				return err
			}
			fmt.Printf("version: %d\n", result.Header.Version)
			if result.Header.HasSource {
				fmt.Printf("source_file: %s\n", result.Header.SourceFile)
				fmt.Printf("source_hash: %s\n", result.Header.SourceHash)
			}
			return nil
		},
	}
}
