package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/akozyreva/campusqa/internal/domain"
	"github.com/akozyreva/campusqa/internal/store"
	"github.com/go-chi/chi/v5"
)

// SessionNotifications returns the most recent notifications addressed to a
// session, together with its unread count.
func (h *Handler) SessionNotifications(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "session id is required")
		return
	}

	limit := h.notificationLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	notifications, err := h.repo.Notifications(r.Context(), sessionID, limit)
	if err != nil {
		slog.Error("failed to list notifications", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to fetch notifications")
		return
	}

	unread := 0
	for _, n := range notifications {
		if !n.IsRead {
			unread++
		}
	}

	JSON(w, http.StatusOK, domain.NotificationList{
		Notifications: notifications,
		UnreadCount:   unread,
	})
}

// MarkNotificationRead marks one notification as read. Read state only ever
// moves false -> true.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	err = h.repo.MarkNotificationRead(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "notification not found")
		return
	}
	if err != nil {
		slog.Error("failed to mark notification read", "error", err, "notification_id", id)
		Error(w, http.StatusInternalServerError, "failed to mark notification as read")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks every notification for a session as read.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "session id is required")
		return
	}

	if err := h.repo.MarkAllNotificationsRead(r.Context(), sessionID); err != nil {
		slog.Error("failed to mark all notifications read", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to mark notifications as read")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}
