package cmd

import (
	"context"
	"fmt"
	"strconv"

	"newsdesk/internal/apperr"
	"newsdesk/internal/markdown"
	"newsdesk/internal/model"
	"newsdesk/internal/newsroom"
	"newsdesk/internal/render"

	"github.com/spf13/cobra"
)

// withService opens the service for a one-shot command and closes it after fn.
func withService(fn func(ctx context.Context, svc *newsroom.Service) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	svc, err := openService(ctx, GetConfig(), nil)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.Validation, "parse id", "invalid article id %q", s)
	}
	return id, nil
}

var (
	listPage int
	listSize int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List articles, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *newsroom.Service) error {
			res, err := svc.Browse(ctx, listPage, listSize)
			if err != nil {
				return err
			}
			return render.Page(cmd.OutOrStdout(), res)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *newsroom.Service) error {
			a, err := svc.Get(ctx, id)
			if err != nil {
				return err
			}
			return render.Article(cmd.OutOrStdout(), a)
		})
	},
}

var (
	addHeadline string
	addSummary  string
	addLink     string
	addSource   string
	addFromFile string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an article from flags or a markdown file with frontmatter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var a model.Article
		if addFromFile != "" {
			var err error
			if a, err = markdown.ArticleFromFile(addFromFile); err != nil {
				return err
			}
		}
		if addHeadline != "" {
			a.Headline = addHeadline
		}
		if addSummary != "" {
			a.Summary = addSummary
		}
		if addLink != "" {
			a.Link = addLink
		}
		if addSource != "" {
			a.Source = addSource
		}
		return withService(func(ctx context.Context, svc *newsroom.Service) error {
			created, err := svc.Create(ctx, a)
			if err != nil {
				return err
			}
			return render.Article(cmd.OutOrStdout(), created)
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit headline, summary or link of an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var u model.ArticleUpdate
		flags := cmd.Flags()
		if flags.Changed("headline") {
			v, _ := flags.GetString("headline")
			u.Headline = &v
		}
		if flags.Changed("summary") {
			v, _ := flags.GetString("summary")
			u.Summary = &v
		}
		if flags.Changed("link") {
			v, _ := flags.GetString("link")
			u.Link = &v
		}
		return withService(func(ctx context.Context, svc *newsroom.Service) error {
			a, err := svc.Update(ctx, id, u)
			if err != nil {
				return err
			}
			return render.Article(cmd.OutOrStdout(), a)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an article",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *newsroom.Service) error {
			if err := svc.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted article %d\n", id)
			return nil
		})
	},
}

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number (1-based)")
	listCmd.Flags().IntVar(&listSize, "size", 0, "page size (default: pagination.page_size)")

	addCmd.Flags().StringVar(&addHeadline, "headline", "", "article headline")
	addCmd.Flags().StringVar(&addSummary, "summary", "", "article summary")
	addCmd.Flags().StringVar(&addLink, "link", "", "article link (absolute http(s) URL)")
	addCmd.Flags().StringVar(&addSource, "source", "", "source label (default: manual)")
	addCmd.Flags().StringVar(&addFromFile, "from-file", "", "markdown file with headline/link frontmatter")

	editCmd.Flags().String("headline", "", "new headline")
	editCmd.Flags().String("summary", "", "new summary")
	editCmd.Flags().String("link", "", "new link")

	rootCmd.AddCommand(listCmd, showCmd, addCmd, editCmd, deleteCmd)
}
