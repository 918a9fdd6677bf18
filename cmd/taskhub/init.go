package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("base-url", "", "backend base URL (e.g. https://tasks.example.com)")
	initCmd.Flags().Int64("user", 0, "numeric user id for the real-time socket")
}

var initCmd = &cobra.Command{
	Use:   "init <token>",
	Short: "Store the access token in ~/.taskhub/config.toml",
	Long:  "Initialize the taskhub CLI by storing your access token in the local configuration file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg.Auth.Token = token
		if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
			cfg.Default.BaseURL = baseURL
		}
		if userID, _ := cmd.Flags().GetInt64("user"); userID > 0 {
			cfg.Auth.UserID = userID
		}

		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		path, _ := configPath()
		fmt.Printf("Token saved to %s\n", path)
		return nil
	},
}
