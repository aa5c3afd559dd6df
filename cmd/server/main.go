// Package main is the entry point for the battle engine CLI
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mathquest/battle-api/internal/errors"
)

var redisAddr string

var rootCmd = &cobra.Command{
	Use:   "battle-api",
	Short: "Math battle engine",
	Long:  `battle-api runs timed math-quiz battles: seed content into Redis, then play encounters from the terminal.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.IsUnavailable(err) {
			fmt.Fprintln(os.Stderr, "Is Redis running? Use --redis-addr if it is not on localhost:6379.")
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(playCmd)
}
