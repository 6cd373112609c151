package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codex-vfs/vfsh/internal/vfs"
)

func mountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount",
		Short: "Attach and inspect host, library, and remote mounts",
	}
	cmd.AddCommand(mountFsCmd(), mountLibCmd(), mountRemoteCmd(), mountRmCmd(), mountLsCmd())
	return cmd
}

func mountFsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fs <vfs-path> <host-path>",
		Short: "Project a host directory into the VFS",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Vfs.MountFilesystem(args[0], args[1]); err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("mounted %s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func mountLibCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lib <vfs-path> <lib-path> [symbol ...]",
		Short: "Load a dynamic library and mount its discovered symbols",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Vfs.MountLibrary(args[0], args[1], args[2:]); err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("mounted library %s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func mountRemoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remote <vfs-path> <host:port> <remote-path>",
		Short: "Register a remote mount served by a vfsh-remote daemon",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			hostPort := strings.SplitN(args[1], ":", 2)
			if len(hostPort) != 2 {
				return fmt.Errorf("expected host:port, got %q", args[1])
			}
			port, err := strconv.Atoi(hostPort[1])
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", hostPort[1], err)
			}
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Vfs.MountRemote(args[0], hostPort[0], port, args[2]); err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("mounted remote %s -> %s:%d%s\n", args[0], hostPort[0], port, args[2])
			return nil
		},
	}
}

func mountRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <vfs-path>",
		Short: "Unmount the entry at vfs-path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Vfs.Unmount(args[0]); err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("unmounted %s\n", args[0])
			return nil
		},
	}
}

func mountLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List active mounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VFS PATH\tTYPE\tHOST PATH")
			for _, m := range s.Vfs.Mounts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.VfsPath, mountKindName(m.Type), m.HostPath)
			}
			return w.Flush()
		},
	}
}

func mountKindName(k vfs.MountKind) string {
	switch k {
	case vfs.MountFilesystem:
		return "fs"
	case vfs.MountLibrary:
		return "lib"
	case vfs.MountRemote:
		return "remote"
	default:
		return "unknown"
	}
}
