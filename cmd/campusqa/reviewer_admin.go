package main

import (
	"context"
	"fmt"

	"github.com/akozyreva/campusqa/internal/config"
	"github.com/akozyreva/campusqa/internal/domain"
	"github.com/akozyreva/campusqa/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func addReviewerCmd() *cobra.Command {
	var name, username, email, password string

	cmd := &cobra.Command{
		Use:   "add-reviewer",
		Short: "Create a reviewer account (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return addReviewer(cfg, name, username, email, password)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&username, "username", "", "login username")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func addReviewer(cfg *config.Config, name, username, email, password string) error {
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer repo.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	reviewer := &domain.Reviewer{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := repo.CreateReviewer(context.Background(), reviewer); err != nil {
		return fmt.Errorf("create reviewer: %w", err)
	}

	fmt.Printf("Reviewer %s created (id %d).\n", username, reviewer.ID)
	return nil
}
