package cmd

import (
	"fmt"
	"sort"
	"strings"

	"newsdesk/internal/markdown"
	"newsdesk/internal/query"

	"github.com/spf13/cobra"
)

var debugQueryMode string

var debugQueryCmd = &cobra.Command{
	Use:   "debug-query <query>",
	Short: "Debug: parse a search query and print its canonical form",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := query.ParseMode(debugQueryMode)
		if err != nil {
			return err
		}
		q, err := query.Parse(strings.Join(args, " "), m)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mode: %s\n", q.Mode())
		fmt.Fprintf(out, "canonical: %s\n", q.String())
		return nil
	},
}

var debugParseCmd = &cobra.Command{
	Use:   "debug-parse <markdown_path>",
	Short: "Debug: parse a markdown submission and print the article it yields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		doc, err := markdown.ParseFile(path)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(doc.Frontmatter))
		for k := range doc.Frontmatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "frontmatter keys: %s\n", strings.Join(keys, ", "))
		fmt.Fprintf(out, "body bytes: %d\n", len(doc.Body))

		a, err := markdown.ArticleFromFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "headline: %s\nlink: %s\n", a.Headline, a.Link)
		if err := a.Validate(); err != nil {
			fmt.Fprintf(out, "invalid: %v\n", err)
		}
		return nil
	},
}

func init() {
	debugQueryCmd.Flags().StringVar(&debugQueryMode, "mode", "wildcard_phrase", "query mode")
	rootCmd.AddCommand(debugQueryCmd, debugParseCmd)
}
