package cmd

import "github.com/spf13/cobra"

// redisCmd groups Redis backend utilities.
var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis backend utilities",
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
