package cmd

import (
	"context"
	"fmt"

	"newsdesk/internal/render"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source...]",
	Short: "Fetch configured sources once and index the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		svc, err := openService(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		reports, err := svc.IngestAll(ctx, args...)
		if rerr := render.Reports(cmd.OutOrStdout(), reports); rerr != nil && err == nil {
			err = rerr
		}
		return err
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured source names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range buildSources(GetConfig()) {
			fmt.Fprintln(cmd.OutOrStdout(), s.Name())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, sourcesCmd)
}
