package domain

import "time"

// Notification is a one-way, session-addressed message telling an asker
// that their flag was resolved. IsRead transitions false -> true only,
// via an explicit mark-read acknowledgement.
type Notification struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"-"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	IsRead       bool      `json:"is_read"`
	CorrectionID *int64    `json:"correction_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationList is the poller's view of a session's notifications,
// replaced wholesale on every fetch.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
