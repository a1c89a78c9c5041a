package main

import (
	"context"
	"fmt"

	"github.com/akozyreva/campusqa/internal/config"
	"github.com/akozyreva/campusqa/internal/gateway"
	"github.com/akozyreva/campusqa/internal/session"
	"github.com/spf13/cobra"
)

func notificationsCmd() *cobra.Command {
	var readID int64
	var readAll bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show notifications for the local chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return runNotifications(cfg, readID, readAll)
		},
	}

	cmd.Flags().Int64Var(&readID, "read", 0, "mark one notification as read")
	cmd.Flags().BoolVar(&readAll, "read-all", false, "mark all notifications as read")
	return cmd
}

func runNotifications(cfg *config.Config, readID int64, readAll bool) error {
	storage, err := session.NewFileStorage(cfg.ClientStateDir)
	if err != nil {
		return fmt.Errorf("open client state: %w", err)
	}

	store := session.NewStore(storage)
	sessionID, err := store.SessionID()
	if err != nil {
		return fmt.Errorf("establish session: %w", err)
	}

	ctx := context.Background()
	client := gateway.NewClient(cfg.BackendURL)

	if readID != 0 {
		if err := client.MarkRead(ctx, readID); err != nil {
			return fmt.Errorf("mark notification read: %w", err)
		}
	}
	if readAll {
		if err := client.MarkAllRead(ctx, sessionID); err != nil {
			return fmt.Errorf("mark all notifications read: %w", err)
		}
	}

	// Always refetch after mutations so the printed view is authoritative.
	view, err := client.Notifications(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("fetch notifications: %w", err)
	}

	if len(view.Notifications) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	fmt.Printf("Notifications (%d unread):\n", view.UnreadCount)
	for _, n := range view.Notifications {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s: %s\n", marker, n.ID, n.Title, n.Message)
	}
	return nil
}
