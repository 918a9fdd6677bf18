package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current configuration and notification stats",
	Long:  "Display the current configuration and fetch the live notification summary from the backend.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Println("Configuration:")
		fmt.Printf("  Base URL: %s\n", valueOrDefault(cfg.Default.BaseURL, "(not set)"))
		if cfg.Auth.Token != "" {
			fmt.Printf("  Token:    %s\n", maskToken(cfg.Auth.Token))
		} else {
			fmt.Println("  Token:    (not set)")
		}
		if cfg.Auth.UserID != 0 {
			fmt.Printf("  User:     %s (#%d)\n", valueOrDefault(cfg.Auth.Username, "unnamed"), cfg.Auth.UserID)
		} else {
			fmt.Println("  User:     (not set)")
		}

		if cfg.Auth.Token == "" || cfg.Default.BaseURL == "" {
			return nil
		}

		fmt.Println()
		fmt.Println("Live status:")

		client := getClient()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		stats, err := client.Notifications().Stats(ctx)
		if err != nil {
			fmt.Printf("  Error fetching stats: %v\n", err)
			return nil
		}

		fmt.Printf("  Total:  %d\n", stats.Total)
		fmt.Printf("  Unread: %d\n", stats.Unread)
		if len(stats.ByType) > 0 {
			types := make([]string, 0, len(stats.ByType))
			for t := range stats.ByType {
				types = append(types, t)
			}
			sort.Strings(types)
			fmt.Println("  By type:")
			for _, t := range types {
				fmt.Printf("    %-14s %d\n", t, stats.ByType[t])
			}
		}
		return nil
	},
}

// maskToken shows the first 8 and last 4 characters of a token.
func maskToken(token string) string {
	if len(token) < 2 {
		return "..."
	}
	if len(token) <= 12 {
		return token[:2] + "..."
	}
	return token[:8] + "..." + token[len(token)-4:]
}

func valueOrDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}
