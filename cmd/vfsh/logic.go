package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/codex-vfs/vfsh/internal/logger"
	"github.com/codex-vfs/vfsh/internal/tags"
)

func logicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logic",
		Short: "Run the forward-chaining logic engine over tags",
	}
	cmd.AddCommand(logicInferCmd(), logicCheckCmd(), logicRulesCmd())
	return cmd
}

func tagSetFromNames(s *session, names []string) tags.TagSet {
	var set tags.TagSet
	for _, name := range names {
		set.Insert(s.Vfs.TagRegistry.RegisterTag(name))
	}
	return set
}

// maybeLoadPersistedRules folds in rules from a prior "rules save" only
// if one exists; calling logic.LoadRulesFromVfs unconditionally would
// replace the freshly seeded hardcoded rule set with an empty one on a
// brand new snapshot, since it always overwrites rather than merges.
func maybeLoadPersistedRules(s *session) {
	if _, err := s.Vfs.ReadPath("/plan/rules/summary.txt"); err != nil {
		return
	}
	if err := s.Vfs.LoadRules(); err != nil {
		logger.Warn("logic: loading persisted rules", "error", err)
	}
}

func tagNamesOf(s *session, set tags.TagSet) []string {
	var names []string
	for _, id := range set.ToVector() {
		if name := s.Vfs.TagRegistry.GetTagName(id); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func logicInferCmd() *cobra.Command {
	var minConfidence float64
	cmd := &cobra.Command{
		Use:   "infer <tag> [tag ...]",
		Short: "Forward-chain from the given tags to a fixpoint",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			maybeLoadPersistedRules(s)

			if minConfidence == 0 {
				minConfidence = s.Config.LogicMinConfidence
			}
			initial := tagSetFromNames(s, args)
			result := s.Vfs.LogicEngine.InferTags(initial, minConfidence)
			for _, name := range tagNamesOf(s, result) {
				fmt.Println(name)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "minimum rule confidence to apply (default from config, normally 0.8)")
	return cmd
}

func logicCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <tag> [tag ...]",
		Short: "Report the first high-confidence rule this tag set violates, if any",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()
			maybeLoadPersistedRules(s)

			set := tagSetFromNames(s, args)
			conflict := s.Vfs.LogicEngine.CheckConsistency(set)
			if conflict == nil {
				fmt.Println("consistent")
				return nil
			}
			fmt.Println(conflict.Description)
			for _, sug := range conflict.Suggestions {
				fmt.Printf("  suggestion: %s\n", sug)
			}
			return nil
		},
	}
}

func logicRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Persist or reload the engine's rule set under /plan/rules",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save [overlay]",
			Short: "Write rules grouped by source to the snapshot's overlay 0 (or the given overlay)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				overlayID := 0
				if len(args) == 1 {
					id, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("invalid overlay id %q: %w", args[0], err)
					}
					overlayID = id
				}
				s, err := loadSession()
				if err != nil {
					return err
				}
				defer s.close()
				if err := s.Vfs.SaveRules(overlayID); err != nil {
					return err
				}
				return s.save()
			},
		},
		&cobra.Command{
			Use:   "load",
			Short: "Reload rules from /plan/rules, replacing the in-memory rule set",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := loadSession()
				if err != nil {
					return err
				}
				defer s.close()
				return s.Vfs.LoadRules()
			},
		},
	)
	return cmd
}
