package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// vfsCmd exposes the façade's core mutation/read primitives (mkdir,
// write, cat, rm) directly — distinct from "mount", which projects
// external content in, and "snapshot ls", which only enumerates. This
// is still not a shell: each invocation is one operation, no parsing of
// a command line beyond cobra's own flag/arg grammar.
func vfsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vfs",
		Short: "Create directories and files, read and remove them, in a given overlay",
	}
	cmd.AddCommand(vfsMkdirCmd(), vfsWriteCmd(), vfsCatCmd(), vfsRmCmd())
	return cmd
}

func vfsMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create every missing directory along path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overlayID, err := resolveOverlayFlag(cmd)
			if err != nil {
				return err
			}
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Vfs.Mkdir(args[0], overlayID); err != nil {
				return err
			}
			return s.save()
		},
	}
	cmd.Flags().String("overlay", "", "overlay id to write into (default 0)")
	return cmd
}

func vfsWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <path> <content>",
		Short: "Create or replace the file at path with content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			overlayID, err := resolveOverlayFlag(cmd)
			if err != nil {
				return err
			}
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Vfs.Write(args[0], []byte(args[1]), overlayID); err != nil {
				return err
			}
			return s.save()
		},
	}
	cmd.Flags().String("overlay", "", "overlay id to write into (default 0)")
	return cmd
}

func vfsCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print the conflict-policy-arbitrated content at path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			content, err := s.Vfs.ReadPath(args[0])
			if err != nil {
				return err
			}
			fmt.Println(content)
			return nil
		},
	}
}

func vfsRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove the node at path from an overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overlayID, err := resolveOverlayFlag(cmd)
			if err != nil {
				return err
			}
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Vfs.Rm(args[0], overlayID); err != nil {
				return err
			}
			return s.save()
		},
	}
	cmd.Flags().String("overlay", "", "overlay id to remove from (default 0)")
	return cmd
}
