package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/record"
)

type notificationDTO struct {
	ID        int64  `json:"id"`
	Severity  string `json:"severity"`
	Category  string `json:"category"`
	PeriodKey string `json:"periodKey"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
	Read      bool   `json:"read"`
}

func toNotificationDTO(n record.Notification) notificationDTO {
	dto := notificationDTO{
		ID:        n.ID,
		Severity:  string(n.Severity),
		Category:  n.Category,
		PeriodKey: n.PeriodKey,
		Message:   n.Message,
		Read:      n.Read,
	}
	if !n.CreatedAt.IsZero() {
		dto.CreatedAt = n.CreatedAt.Format("2006-01-02 15:04:05")
	}
	return dto
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	notifications, err := s.store.ListNotifications(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List notifications error", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	out := make([]notificationDTO, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, toNotificationDTO(n))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleNotificationByID supports POST /api/notifications/{id}/read.
func (s *Server) handleNotificationByID(w http.ResponseWriter, r *http.Request) {
	id, tail, ok := pathID(r, "/api/notifications/")
	if !ok || tail != "/read" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.store.MarkNotificationRead(r.Context(), id); err != nil {
		if errors.Is(err, record.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "notification not found")
			return
		}
		slog.ErrorContext(r.Context(), "Mark notification read error", "error", err, "id", id)
		writeError(w, r, http.StatusInternalServerError, "failed to update notification")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
