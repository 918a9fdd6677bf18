package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	taskhub "github.com/sarthakare/task-frontend-sub001"
)

var (
	watchHeartbeat   time.Duration
	watchBaseDelay   time.Duration
	watchMaxAttempts int
	watchFixed       bool
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchHeartbeat, "heartbeat", 30*time.Second, "liveness probe interval")
	watchCmd.Flags().DurationVar(&watchBaseDelay, "base-delay", 3*time.Second, "reconnect backoff base delay")
	watchCmd.Flags().IntVar(&watchMaxAttempts, "max-attempts", 5, "reconnect attempts before giving up")
	watchCmd.Flags().BoolVar(&watchFixed, "fixed-backoff", false, "retry at a constant delay instead of exponential backoff")
}

var (
	badgeLiveStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	badgePendingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	badgeErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	badgeOffStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B7280"))
)

// renderBadge maps a connection state to the persistent status line.
func renderBadge(state taskhub.ConnState) string {
	switch state {
	case taskhub.StateConnected:
		return badgeLiveStyle.Render("● Live")
	case taskhub.StateConnecting:
		return badgePendingStyle.Render("● Connecting...")
	case taskhub.StateError:
		return badgeErrorStyle.Render("● Error (retrying)")
	case taskhub.StateFailed:
		return badgeErrorStyle.Render("● Failed") + badgeOffStyle.Render("  press r+enter to reconnect")
	default:
		return badgeOffStyle.Render("● Offline")
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream real-time notifications to the terminal",
	Long:  "Connect to the notification WebSocket and print incoming notifications and toasts until interrupted.\nType 'r' and press enter to force a reconnect after the socket has failed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		creds := getCredentials()
		logger := getLogger()
		defer logger.Sync() //nolint:errcheck

		store := taskhub.NewNotificationStore(client, logger)
		alerter := taskhub.NewTerminalAlerter(os.Stdout)

		sock := taskhub.NewNotificationSocket(client, creds, store, alerter, &taskhub.SocketConfig{
			HeartbeatInterval:    watchHeartbeat,
			ReconnectBaseDelay:   watchBaseDelay,
			MaxReconnectAttempts: watchMaxAttempts,
			FixedBackoff:         watchFixed,
		}, logger)

		sock.OnStateChange(func(state taskhub.ConnState) {
			fmt.Println(renderBadge(state))
		})

		ctx := context.Background()
		if err := sock.Connect(ctx); err != nil {
			return err
		}

		// Reconcile with server truth so the unread badge starts correct.
		refreshCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		if err := store.Refresh(refreshCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Initial refresh failed: %v\n", err)
		}
		cancel()
		fmt.Printf("Unread: %d\n", store.UnreadCount())

		// Manual reconnect affordance on stdin.
		go func() {
			var input string
			for {
				if _, err := fmt.Scanln(&input); err != nil {
					return
				}
				if input == "r" {
					if err := sock.Reconnect(ctx); err != nil {
						fmt.Fprintf(os.Stderr, "Reconnect failed: %v\n", err)
					}
				}
			}
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		return sock.Close()
	},
}
