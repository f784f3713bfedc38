package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yourorg/taskboard/internal/observability/metrics"
	"github.com/yourorg/taskboard/internal/security/auth"
	"github.com/yourorg/taskboard/internal/service"
)

// TaskFeedHandler streams a user's task mutation events over a WebSocket.
// Browsers cannot set an Authorization header on a websocket upgrade, so the
// bearer token is passed as a query parameter.
type TaskFeedHandler struct {
	tokens         *auth.TokenManager
	users          *service.UserService
	events         *service.TaskEvents
	logger         *slog.Logger
	allowedOrigins []string
}

// NewTaskFeedHandler creates a new task feed handler
func NewTaskFeedHandler(tokens *auth.TokenManager, users *service.UserService, events *service.TaskEvents, logger *slog.Logger, allowedOrigins []string) *TaskFeedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskFeedHandler{
		tokens:         tokens,
		users:          users,
		events:         events,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

func (h *TaskFeedHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/tasks?token=...
func (h *TaskFeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, `{"error":"Authentication required"}`, http.StatusUnauthorized)
		return
	}

	userID, err := h.tokens.Verify(tokenString)
	if err != nil {
		http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil || user == nil {
		http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	events, cancel := h.events.Subscribe(user.ID)
	defer cancel()

	metrics.FeedSubscriberConnected()
	defer metrics.FeedSubscriberDisconnected()

	h.logger.Info("task feed opened", slog.String("user_id", user.ID))

	// Reader goroutine: the client sends nothing meaningful, but reading is
	// how we learn the connection closed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			h.logger.Info("task feed closed", slog.String("user_id", user.ID))
			return
		case <-r.Context().Done():
			return
		case evt := <-events:
			payload, err := json.Marshal(evt)
			if err != nil {
				h.logger.Error("failed to encode task event", slog.String("error", err.Error()))
				continue
			}
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Debug("task feed write failed",
					slog.String("user_id", user.ID),
					slog.String("error", err.Error()),
				)
				return
			}
		}
	}
}
