package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	taskhub "github.com/sarthakare/task-frontend-sub001"
)

var (
	listSkip   int
	listLimit  int
	listUnread bool
)

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsReadAllCmd)
	notificationsCmd.AddCommand(notificationsDeleteCmd)

	notificationsListCmd.Flags().IntVar(&listSkip, "skip", 0, "number of notifications to skip")
	notificationsListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum notifications to fetch")
	notificationsListCmd.Flags().BoolVar(&listUnread, "unread", false, "only unread notifications")
}

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"n"},
	Short:   "Manage notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		page, err := client.Notifications().List(ctx, &taskhub.ListOptions{
			Skip:       listSkip,
			Limit:      listLimit,
			UnreadOnly: listUnread,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Total: %d  Unread: %d\n\n", page.Total, page.UnreadCount)
		for _, n := range page.Notifications {
			marker := " "
			if !n.IsRead {
				marker = "*"
			}
			fmt.Printf("%s %6d  %-14s %s\n", marker, n.ID, n.Type, n.Title)
			if n.Message != "" {
				fmt.Printf("          %s\n", n.Message)
			}
		}
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark one notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid notification id %q", args[0])
		}

		client := getClient()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		n, err := client.Notifications().MarkRead(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("Marked %d as read (%s)\n", n.ID, n.Title)
		return nil
	},
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		result, err := client.Notifications().MarkAllRead(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Marked %d notifications as read\n", result.UpdatedCount)
		return nil
	},
}

var notificationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid notification id %q", args[0])
		}

		client := getClient()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if _, err := client.Notifications().Delete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Deleted notification %d\n", id)
		return nil
	},
}
