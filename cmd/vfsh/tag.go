package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codex-vfs/vfsh/internal/tags"
)

func tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Attach, remove, and list tags on VFS nodes",
	}
	cmd.AddCommand(tagAddCmd(), tagRmCmd(), tagLsCmd(), tagFindCmd())
	return cmd
}

func resolveOverlayFlag(cmd *cobra.Command) (int, error) {
	raw, _ := cmd.Flags().GetString("overlay")
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func tagAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <path> <tag>",
		Short: "Attach a tag to the node at path",
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
			node, err := s.Vfs.ResolveForOverlay(args[0], overlayID)
			if err != nil {
				return err
			}
			id := s.Vfs.TagRegistry.RegisterTag(args[1])
			s.Vfs.TagStorage.AddTag(node, id)
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("tagged %s with %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().String("overlay", "", "overlay id to resolve path in (default 0)")
	return cmd
}

func tagRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path> <tag>",
		Short: "Remove a tag from the node at path",
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
			node, err := s.Vfs.ResolveForOverlay(args[0], overlayID)
			if err != nil {
				return err
			}
			id := s.Vfs.TagRegistry.GetTagID(args[1])
			s.Vfs.TagStorage.RemoveTag(node, id)
			if err := s.save(); err != nil {
				return err
			}
			fmt.Printf("removed tag %s from %s\n", args[1], args[0])
			return nil
		},
	}
	cmd.Flags().String("overlay", "", "overlay id to resolve path in (default 0)")
	return cmd
}

func tagLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <path>",
		Short: "List the tags attached to the node at path",
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
			node, err := s.Vfs.ResolveForOverlay(args[0], overlayID)
			if err != nil {
				return err
			}
			set := s.Vfs.TagStorage.GetTags(node)
			if set == nil {
				return nil
			}
			var names []string
			for _, id := range set.ToVector() {
				if name := s.Vfs.TagRegistry.GetTagName(id); name != "" {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			fmt.Println(strings.Join(names, "\n"))
			return nil
		},
	}
	cmd.Flags().String("overlay", "", "overlay id to resolve path in (default 0)")
	return cmd
}

func tagFindCmd() *cobra.Command {
	matchAll := false
	cmd := &cobra.Command{
		Use:   "find <tag> [tag ...]",
		Short: "List every tagged node matching the given tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()

			var required tags.TagSet
			for _, name := range args {
				if id := s.Vfs.TagRegistry.GetTagID(name); id != tags.TagInvalid {
					required.Insert(id)
				}
			}
			nodes := s.Vfs.TagStorage.FindByTags(required, matchAll)
			fmt.Printf("%d node(s) matched\n", len(nodes))
			return nil
		},
	}
	cmd.Flags().BoolVar(&matchAll, "all", false, "require every tag to match instead of any")
	return cmd
}
