package cmd

import (
	"context"
	"strings"

	"newsdesk/internal/newsroom"
	"newsdesk/internal/render"

	"github.com/spf13/cobra"
)

var (
	searchMode string
	searchPage int
	searchSize int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search articles by headline and summary",
	Long: `Search articles, newest first.

Modes:
  headline_summary  every word must appear (default)
  wildcard_phrase   literals, * and ? globs, and "quoted phrases"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := strings.Join(args, " ")
		return withService(func(ctx context.Context, svc *newsroom.Service) error {
			res, err := svc.Search(ctx, raw, searchMode, searchPage, searchSize)
			if err != nil {
				return err
			}
			return render.Page(cmd.OutOrStdout(), res)
		})
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchMode, "mode", "headline_summary", "query mode: headline_summary or wildcard_phrase")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "page number (1-based)")
	searchCmd.Flags().IntVar(&searchSize, "size", 0, "page size (default: pagination.page_size)")
	rootCmd.AddCommand(searchCmd)
}
