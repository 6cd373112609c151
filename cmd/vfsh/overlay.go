package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codex-vfs/vfsh/internal/vfsnode"
)

func overlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Create, list, and arbitrate between overlays",
	}
	cmd.AddCommand(overlayAddCmd(), overlayLsCmd(), overlayRmCmd(), overlayUseCmd())
	return cmd
}

func overlayAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new empty overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			id := s.Vfs.Overlays.RegisterOverlay(args[0], vfsnode.NewDir("/"))
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("overlay %d (%s) created\n", id, args[0])
			return nil
		},
	}
}

func overlayLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List overlays with their dirty bit and name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDIRTY\tPRIMARY")
			for id := 0; id < s.Vfs.Overlays.Count(); id++ {
				name, _ := s.Vfs.Overlays.OverlayName(id)
				dirty, _ := s.Vfs.Overlays.OverlayDirty(id)
				primary := ""
				if id == s.Vfs.Workdir.PrimaryOverlay {
					primary = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%v\t%s\n", id, name, dirty, primary)
			}
			return w.Flush()
		},
	}
}

func overlayRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an overlay and renumber the ids above it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid overlay id %q: %w", args[0], err)
			}
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Vfs.Overlays.RemoveOverlay(id); err != nil {
				return err
			}
			s.Vfs.Workdir.AdjustContextAfterUnmount(id)
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("overlay %d removed\n", id)
			return nil
		},
	}
}

func overlayUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Set the manual-policy primary overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid overlay id %q: %w", args[0], err)
			}
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			s.Vfs.Workdir.PrimaryOverlay = id
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("primary overlay set to %d\n", id)
			return nil
		},
	}
}
