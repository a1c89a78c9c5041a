package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/akozyreva/campusqa/internal/config"
	"github.com/akozyreva/campusqa/internal/review"
	"github.com/akozyreva/campusqa/internal/session"
	"github.com/spf13/cobra"
)

const reviewerTokenKey = "reviewer_token"

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review pending corrections (reviewer role)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return runReview(cfg)
		},
	}
}

func runReview(cfg *config.Config) error {
	storage, err := session.NewFileStorage(cfg.ClientStateDir)
	if err != nil {
		return fmt.Errorf("open client state: %w", err)
	}

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	token, _ := storage.Get(reviewerTokenKey)
	if token == "" {
		token, err = loginReviewer(ctx, cfg, storage, reader)
		if err != nil {
			return err
		}
	}

	console := review.NewConsole(review.NewHTTPClient(cfg.BackendURL, token))
	if err := console.Refresh(ctx); err != nil {
		// A stale credential means re-authenticating, not failing.
		if errors.Is(err, review.ErrUnauthorized) {
			_ = storage.Delete(reviewerTokenKey)
			token, err = loginReviewer(ctx, cfg, storage, reader)
			if err != nil {
				return err
			}
			console = review.NewConsole(review.NewHTTPClient(cfg.BackendURL, token))
			if err := console.Refresh(ctx); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	fmt.Println("Commands: approve <id>, edit <id>, reject <id>, list, refresh, quit")
	printPending(console)

	for {
		fmt.Print("review> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" {
			return nil
		}

		if err := handleReviewCommand(ctx, console, reader, line); err != nil {
			if errors.Is(err, review.ErrUnauthorized) {
				_ = storage.Delete(reviewerTokenKey)
				fmt.Println("Your credential has expired, please run `campusqa review` again to log in.")
				return nil
			}
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func handleReviewCommand(ctx context.Context, console *review.Console, reader *bufio.Reader, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "list":
		printPending(console)
		return nil

	case "refresh":
		if err := console.Refresh(ctx); err != nil {
			return err
		}
		printPending(console)
		return nil

	case "approve", "reject", "edit":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return fmt.Errorf("usage: %s <correction-id>", cmd)
		}
		switch cmd {
		case "approve":
			if err := console.Approve(ctx, id); err != nil {
				return err
			}
			fmt.Println("Approved: original response confirmed correct.")
		case "reject":
			if err := console.Reject(ctx, id); err != nil {
				return err
			}
			fmt.Println("Rejected.")
		case "edit":
			if err := editCorrection(ctx, console, reader, id); err != nil {
				return err
			}
		}
		printPending(console)
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// editCorrection runs the local edit flow: draft preloaded with the
// original response, then submit or cancel. Cancel makes no backend call.
func editCorrection(ctx context.Context, console *review.Console, reader *bufio.Reader, id int64) error {
	if err := console.BeginEdit(id); err != nil {
		return err
	}

	var draft string
	for _, it := range console.Items() {
		if it.ID == id {
			draft = it.Draft
		}
	}
	fmt.Printf("Current response:\n%s\n", draft)
	fmt.Print("Corrected response (empty line cancels): ")

	text, err := reader.ReadString('\n')
	if err != nil {
		return console.CancelEdit(id)
	}
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		fmt.Println("Edit cancelled.")
		return console.CancelEdit(id)
	}

	if err := console.SetDraft(id, text); err != nil {
		return err
	}
	if err := console.SubmitEdit(ctx, id); err != nil {
		return err
	}
	fmt.Println("Approved with corrected response.")
	return nil
}

func loginReviewer(ctx context.Context, cfg *config.Config, storage session.Storage, reader *bufio.Reader) (string, error) {
	fmt.Print("Username or email: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read username: %w", err)
	}
	fmt.Print("Password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	sess, err := review.Login(ctx, cfg.BackendURL, review.Credentials{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
	})
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	if err := storage.Set(reviewerTokenKey, sess.AccessToken); err != nil {
		return "", fmt.Errorf("save credential: %w", err)
	}
	fmt.Printf("Welcome, %s.\n", sess.ReviewerName)
	return sess.AccessToken, nil
}

func printPending(console *review.Console) {
	items := console.Items()
	if len(items) == 0 {
		fmt.Println("No pending corrections.")
		return
	}
	fmt.Printf("%d pending correction(s):\n", len(items))
	for _, it := range items {
		fmt.Printf("[%d] flagged: %s\n", it.ID, it.Reason)
		fmt.Printf("    Q: %s\n", it.Query)
		fmt.Printf("    A: %s\n", it.BotResponse)
	}
}
