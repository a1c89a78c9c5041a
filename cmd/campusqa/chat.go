package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/akozyreva/campusqa/internal/config"
	"github.com/akozyreva/campusqa/internal/domain"
	"github.com/akozyreva/campusqa/internal/feedback"
	"github.com/akozyreva/campusqa/internal/gateway"
	"github.com/akozyreva/campusqa/internal/notify"
	"github.com/akozyreva/campusqa/internal/session"
	"github.com/spf13/cobra"
)

const historyWindow = 6 // last 3 exchanges, greeting excluded

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return runChat(cfg)
		},
	}
}

type chatSession struct {
	cfg      *config.Config
	store    *session.Store
	client   *gateway.Client
	tracker  *feedback.Tracker
	poller   *notify.Poller
	session  string
	messages []domain.ChatMessage
}

func runChat(cfg *config.Config) error {
	storage, err := session.NewFileStorage(cfg.ClientStateDir)
	if err != nil {
		return fmt.Errorf("open client state: %w", err)
	}

	store := session.NewStore(storage)
	sessionID, err := store.SessionID()
	if err != nil {
		return fmt.Errorf("establish session: %w", err)
	}

	cs := &chatSession{
		cfg:      cfg,
		store:    store,
		client:   gateway.NewClient(cfg.BackendURL),
		tracker:  feedback.NewTracker(),
		session:  sessionID,
		messages: store.LoadHistory(sessionID),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background notification polling for the lifetime of the chat view;
	// cancelling ctx on exit stops the timer.
	cs.poller = notify.NewPoller(cs.client, sessionID, cfg.PollInterval)
	cs.poller.OnUpdate(func(v domain.NotificationList) {
		if v.UnreadCount > 0 {
			fmt.Printf("\n[%d unread notification(s), type /notifications to view]\n> ", v.UnreadCount)
		}
	})
	go cs.poller.Run(ctx)

	for _, msg := range cs.messages {
		cs.printMessage(msg)
	}
	fmt.Println("Commands: /flag <reason>, /up, /down, /notifications, /read <id>, /read-all, /correction <id>, /new, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		if line == "/quit" {
			return nil
		}
		if strings.HasPrefix(line, "/") {
			cs.handleCommand(ctx, line)
		} else {
			cs.ask(ctx, line)
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

// ask appends the user message before issuing the call, so a slow answer
// can never appear ahead of the question that triggered it.
func (cs *chatSession) ask(ctx context.Context, query string) {
	cs.append(domain.ChatMessage{Role: domain.RoleUser, Content: query})

	result, err := cs.client.Ask(ctx, query, cs.historyWindow(), cs.session)
	if err != nil {
		fmt.Printf("Sorry, I encountered an error: %v\n", err)
		return
	}

	reply := domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: result.Response,
		ID:      strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	cs.append(reply)
	cs.printMessage(reply)

	if len(result.SuggestedQuestions) > 0 {
		fmt.Println("You could also ask:")
		for _, q := range result.SuggestedQuestions {
			fmt.Printf("  - %s\n", q)
		}
	}
}

func (cs *chatSession) append(msg domain.ChatMessage) {
	cs.messages = append(cs.messages, msg)
	if err := cs.store.SaveHistory(cs.session, cs.messages); err != nil {
		fmt.Printf("Warning: failed to save chat history: %v\n", err)
	}
}

// historyWindow returns the conversation context sent with a question:
// the last exchanges, skipping the greeting.
func (cs *chatSession) historyWindow() []domain.ChatMessage {
	history := cs.messages
	if len(history) > 0 {
		history = history[1:]
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	return history
}

func (cs *chatSession) handleCommand(ctx context.Context, line string) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/new":
		if err := cs.store.Reset(); err != nil {
			fmt.Printf("Failed to reset session: %v\n", err)
			return
		}
		sessionID, err := cs.store.SessionID()
		if err != nil {
			fmt.Printf("Failed to start a new session: %v\n", err)
			return
		}
		cs.session = sessionID
		cs.messages = cs.store.LoadHistory(sessionID)
		cs.tracker = feedback.NewTracker()
		fmt.Println("Started a new chat.")
		cs.printMessage(cs.messages[0])

	case "/flag":
		cs.flag(ctx, rest)

	case "/up":
		cs.rate(ctx, domain.FeedbackThumbsUp)

	case "/down":
		cs.rate(ctx, domain.FeedbackThumbsDown)

	case "/notifications":
		cs.showNotifications(ctx)

	case "/read":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			fmt.Println("Usage: /read <notification-id>")
			return
		}
		if err := cs.poller.MarkRead(ctx, id); err != nil {
			fmt.Printf("Failed to mark notification as read: %v\n", err)
		}

	case "/read-all":
		if err := cs.poller.MarkAllRead(ctx); err != nil {
			fmt.Printf("Failed to mark notifications as read: %v\n", err)
		}

	case "/correction":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			fmt.Println("Usage: /correction <correction-id>")
			return
		}
		cs.showCorrection(ctx, id)

	default:
		fmt.Printf("Unknown command %s\n", cmd)
	}
}

// flag reports the most recent assistant answer. The reason is validated
// here, before any network call.
func (cs *chatSession) flag(ctx context.Context, reason string) {
	if reason == "" {
		fmt.Println("A reason is required: /flag <reason>")
		return
	}

	query, response, _, ok := cs.lastExchange()
	if !ok {
		fmt.Println("Nothing to flag yet.")
		return
	}

	correctionID, err := cs.client.Flag(ctx, query, response, reason, cs.session)
	if err != nil {
		fmt.Printf("Failed to submit flag: %v\n", err)
		return
	}
	fmt.Printf("Thank you! A reviewer will look at this response (correction #%d). You'll be notified here when it's reviewed.\n", correctionID)
}

func (cs *chatSession) rate(ctx context.Context, ft domain.FeedbackType) {
	query, response, key, ok := cs.lastExchange()
	if !ok {
		fmt.Println("Nothing to rate yet.")
		return
	}

	// Local idempotency check first: a second rating never reaches the wire.
	if recorded, fresh := cs.tracker.TryRecord(key, ft); !fresh {
		fmt.Printf("You already rated this message (%s).\n", recorded)
		return
	}

	err := cs.client.SubmitFeedback(ctx, domain.FeedbackRecord{
		Query:        query,
		Response:     response,
		FeedbackType: ft,
		SessionID:    cs.session,
		MessageID:    key.String(),
	})
	if err != nil {
		fmt.Printf("Failed to submit feedback: %v\n", err)
		return
	}
	fmt.Println("Thanks for the feedback!")
}

// lastExchange returns the latest assistant message, the user question that
// preceded it, and the message's feedback key.
func (cs *chatSession) lastExchange() (query, response string, key feedback.MessageKey, ok bool) {
	for i := len(cs.messages) - 1; i > 0; i-- {
		if cs.messages[i].Role != domain.RoleAssistant {
			continue
		}
		query := ""
		if cs.messages[i-1].Role == domain.RoleUser {
			query = cs.messages[i-1].Content
		}
		return query, cs.messages[i].Content, feedback.KeyFor(cs.messages[i], i), true
	}
	return "", "", feedback.MessageKey{}, false
}

func (cs *chatSession) showNotifications(ctx context.Context) {
	cs.poller.Poll(ctx)
	view := cs.poller.Snapshot()
	if len(view.Notifications) == 0 {
		fmt.Println("No notifications.")
		return
	}
	fmt.Printf("Notifications (%d unread):\n", view.UnreadCount)
	for _, n := range view.Notifications {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s: %s\n", marker, n.ID, n.Title, n.Message)
		if n.CorrectionID != nil {
			fmt.Printf("    view details with /correction %d\n", *n.CorrectionID)
		}
	}
}

func (cs *chatSession) showCorrection(ctx context.Context, id int64) {
	c, err := cs.client.CorrectionDetails(ctx, id)
	if err != nil {
		fmt.Printf("Failed to load correction details, please try again: %v\n", err)
		return
	}

	fmt.Printf("Correction #%d (%s)\n", c.ID, c.Status)
	fmt.Printf("Your question: %s\n", c.StudentQuery)
	fmt.Printf("Original answer: %s\n", c.OriginalResponse)
	if c.CorrectedResponse != nil {
		fmt.Printf("Corrected answer: %s\n", *c.CorrectedResponse)
	}
	if c.ReviewedBy != nil {
		fmt.Printf("Reviewed by: %s\n", *c.ReviewedBy)
	}
}

func (cs *chatSession) printMessage(msg domain.ChatMessage) {
	who := "You"
	if msg.Role == domain.RoleAssistant {
		who = "Assistant"
	}
	fmt.Printf("%s: %s\n", who, msg.Content)
}
