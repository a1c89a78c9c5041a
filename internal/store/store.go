// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/akozyreva/campusqa/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyReviewed is returned when a disposition targets a correction
// that has already reached a terminal status. Terminal states are immutable.
var ErrAlreadyReviewed = errors.New("correction already reviewed")

// Repository defines the interface for persisting corrections, notifications,
// feedback and reviewer accounts.
type Repository interface {
	// CreateCorrection stores a new pending correction and returns its id.
	CreateCorrection(ctx context.Context, c *domain.Correction) (int64, error)

	// GetCorrection retrieves a correction by id. Returns ErrNotFound if absent.
	GetCorrection(ctx context.Context, id int64) (*domain.Correction, error)

	// PendingCorrections lists corrections still awaiting review, oldest first.
	PendingCorrections(ctx context.Context) ([]domain.PendingCorrection, error)

	// ReviewCorrection applies a disposition to a pending correction.
	// Returns ErrAlreadyReviewed if the correction is already terminal,
	// ErrNotFound if it does not exist.
	ReviewCorrection(ctx context.Context, id int64, d domain.Disposition, reviewedBy string, reviewedAt time.Time) error

	// CreateNotification stores a session-addressed notification.
	CreateNotification(ctx context.Context, n *domain.Notification) (int64, error)

	// Notifications lists the most recent notifications for a session.
	Notifications(ctx context.Context, sessionID string, limit int) ([]domain.Notification, error)

	// MarkNotificationRead marks one notification as read.
	MarkNotificationRead(ctx context.Context, id int64) error

	// MarkAllNotificationsRead marks every notification for a session as read.
	MarkAllNotificationsRead(ctx context.Context, sessionID string) error

	// SaveFeedback stores a thumbs up/down feedback record. The backend does
	// not dedupe; write-once semantics are enforced client-side.
	SaveFeedback(ctx context.Context, rec domain.FeedbackRecord) error

	// GetReviewerByLogin retrieves a reviewer by username or email.
	GetReviewerByLogin(ctx context.Context, login string) (*domain.Reviewer, error)

	// CreateReviewer stores a reviewer account.
	CreateReviewer(ctx context.Context, r *domain.Reviewer) error

	// AddVerifiedFact stores a reviewer-confirmed question/answer pair.
	AddVerifiedFact(ctx context.Context, f *domain.VerifiedFact) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
