package main

import (
	"fmt"

	"github.com/spf13/cobra"

	vctx "github.com/codex-vfs/vfsh/internal/context"
)

func contextCmd() *cobra.Command {
	var maxTokens int
	var priority bool
	var dedup bool
	var hierarchical bool
	var adaptive bool
	var summaryThreshold int
	var pathPrefix string

	cmd := &cobra.Command{
		Use:   "context <root-path>",
		Short: "Assemble a token-budgeted context window from a VFS subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			defer s.close()

			if maxTokens == 0 {
				maxTokens = s.Config.ContextMaxTokens
			}
			builder := vctx.NewBuilder(s.Vfs, maxTokens)
			if pathPrefix != "" {
				builder.Filters = append(builder.Filters, vctx.PathPrefix(pathPrefix))
			}
			if err := builder.CollectFromPath(args[0]); err != nil {
				return err
			}

			if !dedup && !hierarchical && !adaptive && summaryThreshold == 0 {
				if priority {
					fmt.Print(builder.BuildWithPriority())
				} else {
					fmt.Print(builder.Build())
				}
				return nil
			}

			result := builder.BuildWithOptions(vctx.Options{
				Deduplicate:      dedup,
				Hierarchical:     hierarchical,
				AdaptiveBudget:   adaptive,
				SummaryThreshold: summaryThreshold,
			})
			if hierarchical {
				fmt.Println("=== overview ===")
				fmt.Print(result.Overview)
				fmt.Println("=== details ===")
				fmt.Print(result.Details)
				return nil
			}
			fmt.Print(result.Output)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "token budget (default from config, normally 8000)")
	cmd.Flags().BoolVar(&priority, "priority", false, "order entries by descending priority before assembling")
	cmd.Flags().BoolVar(&dedup, "dedup", false, "collapse entries with identical content")
	cmd.Flags().BoolVar(&hierarchical, "hierarchical", false, "emit a header-only overview plus a budgeted details section")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "widen the budget to total demand when demand exceeds 2x max-tokens")
	cmd.Flags().IntVar(&summaryThreshold, "summary-threshold", 0, "elide the middle of entries whose token estimate exceeds this")
	cmd.Flags().StringVar(&pathPrefix, "path-prefix", "", "only collect entries whose path has this prefix")
	return cmd
}
