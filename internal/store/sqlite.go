package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akozyreva/campusqa/internal/domain"
	"github.com/akozyreva/campusqa/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS corrections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		student_query TEXT NOT NULL,
		original_response TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		corrected_response TEXT,
		reviewed_by TEXT,
		reviewed_at INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_corrections_status ON corrections(status);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		correction_id INTEGER REFERENCES corrections(id),
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_session ON notifications(session_id, created_at);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		message_id TEXT NOT NULL,
		query TEXT NOT NULL,
		response TEXT NOT NULL,
		feedback_type TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviewers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS verified_facts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		verified_by TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// execWrite runs a write statement, retrying once when SQLite reports a
// concurrency conflict that outlived the busy timeout.
func (s *SQLiteStore) execWrite(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil && shared.IsSQLiteConflictError(err) {
		time.Sleep(50 * time.Millisecond)
		res, err = s.db.ExecContext(ctx, query, args...)
	}
	return res, err
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// CreateCorrection stores a new pending correction and returns its id.
func (s *SQLiteStore) CreateCorrection(ctx context.Context, c *domain.Correction) (int64, error) {
	query := `
		INSERT INTO corrections (session_id, student_query, original_response, reason, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if c.Status == "" {
		c.Status = domain.CorrectionPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	res, err := s.execWrite(ctx, query,
		c.SessionID, c.StudentQuery, c.OriginalResponse, c.Reason,
		string(c.Status), c.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert correction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("correction insert id: %w", err)
	}
	c.ID = id
	return id, nil
}

// GetCorrection retrieves a correction by id.
func (s *SQLiteStore) GetCorrection(ctx context.Context, id int64) (*domain.Correction, error) {
	query := `
		SELECT id, session_id, student_query, original_response, reason,
		       status, corrected_response, reviewed_by, reviewed_at, created_at
		FROM corrections WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	var c domain.Correction
	var status string
	var correctedResponse, reviewedBy sql.NullString
	var reviewedAt sql.NullInt64
	var createdAt int64

	err := row.Scan(
		&c.ID, &c.SessionID, &c.StudentQuery, &c.OriginalResponse, &c.Reason,
		&status, &correctedResponse, &reviewedBy, &reviewedAt, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan correction row: %w", err)
	}

	c.Status = domain.CorrectionStatus(status)
	c.CreatedAt = time.Unix(createdAt, 0)
	if correctedResponse.Valid {
		c.CorrectedResponse = &correctedResponse.String
	}
	if reviewedBy.Valid {
		c.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		ts := time.Unix(reviewedAt.Int64, 0)
		c.ReviewedAt = &ts
	}

	return &c, nil
}

// PendingCorrections lists corrections still awaiting review, oldest first.
func (s *SQLiteStore) PendingCorrections(ctx context.Context) ([]domain.PendingCorrection, error) {
	query := `
		SELECT id, student_query, original_response, reason, created_at
		FROM corrections WHERE status = 'pending'
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending corrections: %w", err)
	}
	defer rows.Close()

	pending := make([]domain.PendingCorrection, 0)
	for rows.Next() {
		var p domain.PendingCorrection
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Query, &p.BotResponse, &p.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending correction row: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		pending = append(pending, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending corrections: %w", err)
	}

	return pending, nil
}

// ReviewCorrection applies a disposition to a pending correction. The UPDATE
// is guarded on status = 'pending' so a terminal correction can never change
// again, regardless of how many dispositions race for it.
func (s *SQLiteStore) ReviewCorrection(ctx context.Context, id int64, d domain.Disposition, reviewedBy string, reviewedAt time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE corrections
		SET status = ?, corrected_response = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND status = 'pending'`

	var correctedResponse interface{}
	if d.Action == domain.DispositionApprove && d.CorrectedResponse != "" {
		correctedResponse = d.CorrectedResponse
	}

	res, err := s.execWrite(ctx, query,
		string(d.TerminalStatus()), correctedResponse, reviewedBy, reviewedAt.Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("review correction: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing correction from an already-terminal one.
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM corrections WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check correction existence: %w", err)
		}
		return ErrAlreadyReviewed
	}

	return nil
}

// CreateNotification stores a session-addressed notification.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *domain.Notification) (int64, error) {
	query := `
		INSERT INTO notifications (session_id, correction_id, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var correctionID interface{}
	if n.CorrectionID != nil {
		correctionID = *n.CorrectionID
	}

	res, err := s.execWrite(ctx, query,
		n.SessionID, correctionID, n.Title, n.Message, n.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("notification insert id: %w", err)
	}
	n.ID = id
	return id, nil
}

// Notifications lists the most recent notifications for a session.
func (s *SQLiteStore) Notifications(ctx context.Context, sessionID string, limit int) ([]domain.Notification, error) {
	query := `
		SELECT id, session_id, correction_id, title, message, is_read, created_at
		FROM notifications WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		var correctionID sql.NullInt64
		var isRead int
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.SessionID, &correctionID, &n.Title, &n.Message, &isRead, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		if correctionID.Valid {
			cid := correctionID.Int64
			n.CorrectionID = &cid
		}
		n.IsRead = isRead != 0
		n.CreatedAt = time.Unix(createdAt, 0)
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead marks one notification as read. Marking an
// already-read notification is a no-op.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id int64) error {
	res, err := s.execWrite(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks every notification for a session as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, sessionID string) error {
	_, err := s.execWrite(ctx, `UPDATE notifications SET is_read = 1 WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// SaveFeedback stores a thumbs up/down feedback record.
func (s *SQLiteStore) SaveFeedback(ctx context.Context, rec domain.FeedbackRecord) error {
	query := `
		INSERT INTO feedback (session_id, message_id, query, response, feedback_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.execWrite(ctx, query,
		rec.SessionID, rec.MessageID, rec.Query, rec.Response,
		string(rec.FeedbackType), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// GetReviewerByLogin retrieves a reviewer by username or email.
func (s *SQLiteStore) GetReviewerByLogin(ctx context.Context, login string) (*domain.Reviewer, error) {
	query := `
		SELECT id, name, username, email, password_hash, created_at
		FROM reviewers WHERE username = ? OR email = ?`

	row := s.db.QueryRowContext(ctx, query, login, login)

	var r domain.Reviewer
	var createdAt int64
	err := row.Scan(&r.ID, &r.Name, &r.Username, &r.Email, &r.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan reviewer row: %w", err)
	}

	r.CreatedAt = time.Unix(createdAt, 0)
	return &r, nil
}

// CreateReviewer stores a reviewer account.
func (s *SQLiteStore) CreateReviewer(ctx context.Context, r *domain.Reviewer) error {
	query := `
		INSERT INTO reviewers (name, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	res, err := s.execWrite(ctx, query,
		r.Name, r.Username, r.Email, r.PasswordHash, r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert reviewer: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reviewer insert id: %w", err)
	}
	r.ID = id
	return nil
}

// AddVerifiedFact stores a reviewer-confirmed question/answer pair.
func (s *SQLiteStore) AddVerifiedFact(ctx context.Context, f *domain.VerifiedFact) error {
	query := `
		INSERT INTO verified_facts (question, answer, verified_by, created_at)
		VALUES (?, ?, ?, ?)`

	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	res, err := s.execWrite(ctx, query,
		f.Question, f.Answer, f.VerifiedBy, f.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert verified fact: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("verified fact insert id: %w", err)
	}
	f.ID = id
	return nil
}
