package cmd

import (
	"context"
	"fmt"
	"time"

	"newsdesk/internal/redisclient"

	"github.com/spf13/cobra"
)

// pingCmd checks that the configured Redis server answers.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping Redis and print the round trip",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		start := time.Now()
		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s from %s db=%d in %s\n", res, cfg.Redis.Addr, cfg.Redis.DB, time.Since(start).Round(time.Microsecond))
		return nil
	},
}

func init() {
	redisCmd.AddCommand(pingCmd)
}
