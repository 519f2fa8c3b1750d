package cmd

import (
	"context"

	"newsdesk/internal/newsroom"
	"newsdesk/internal/render"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <id>",
	Short: "Store an AI summary and sentiment on an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *newsroom.Service) error {
			a, err := svc.AnalyzeArticle(ctx, id)
			if err != nil {
				return err
			}
			return render.Article(cmd.OutOrStdout(), a)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store and index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *newsroom.Service) error {
			st, err := svc.Stats(ctx)
			if err != nil {
				return err
			}
			return render.Stats(cmd.OutOrStdout(), st)
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd, statsCmd)
}
