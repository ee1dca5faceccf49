package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"bizdesk/internal/assistant"
	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/services"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 256 << 10
	wsSendBuffer     = 64
)

// ChatEngine runs one assistant conversation turn.
type ChatEngine interface {
	Chat(ctx context.Context, scope assistant.Scope, messages []assistant.Message, emit func(assistant.Event)) (*assistant.Reply, error)
}

type AssistantHandlers struct {
	engine         ChatEngine
	rbacMiddleware *middleware.RBACMiddleware
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// NewAssistantHandlers builds the chat handlers. allowOrigins restricts
// WebSocket upgrades the same way CORS restricts requests; empty or "*"
// allows any origin.
func NewAssistantHandlers(engine ChatEngine, rbacMiddleware *middleware.RBACMiddleware, allowOrigins []string, logger *zap.Logger) *AssistantHandlers {
	return &AssistantHandlers{
		engine:         engine,
		rbacMiddleware: rbacMiddleware,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(allowed) == 0 || allowed[origin]
	}
}

func (h *AssistantHandlers) Register(g *echo.Group) {
	use := h.rbacMiddleware.RequirePermission(services.PermAssistantUse)
	g.POST("/assistant/chat", h.Chat, use)
	g.GET("/assistant/ws", h.Stream, use)
}

type chatRequest struct {
	Messages []assistant.Message `json:"messages" validate:"required,min=1"`
}

func scopeFrom(c echo.Context) (assistant.Scope, error) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return assistant.Scope{}, err
	}
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return assistant.Scope{}, echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}
	return assistant.Scope{TenantID: tenantID, UserID: userID}, nil
}

// chatErrorMessage is the text shown to the user for a failed chat.
func chatErrorMessage(err error) string {
	switch {
	case errors.Is(err, assistant.ErrToolLoopExhausted):
		return "The assistant could not finish within the step limit. Try a narrower question."
	case errors.Is(err, common.ErrRateLimited):
		return "Too many assistant requests, try again later"
	case errors.Is(err, common.ErrValidation):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "The assistant timed out"
	case errors.Is(err, context.Canceled):
		return "Stopped"
	}
	return "The assistant is unavailable"
}

// Chat godoc
// @Summary      Ask the assistant
// @Description  Runs the tool loop over the tenant's data. With Accept: text/event-stream the reply streams as delta, tool, done and error events.
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        chat  body      chatRequest  true  "Conversation so far, last message from the user"
// @Success      200   {object}  assistant.Reply
// @Failure      400   {object}  common.ErrorResponse
// @Failure      422   {object}  common.ErrorResponse
// @Failure      429   {object}  common.ErrorResponse
// @Router       /assistant/chat [post]
func (h *AssistantHandlers) Chat(c echo.Context) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "text/event-stream") {
		return h.chatEventStream(c, scope, req.Messages)
	}

	reply, err := h.engine.Chat(c.Request().Context(), scope, req.Messages, nil)
	if err != nil {
		if errors.Is(err, assistant.ErrToolLoopExhausted) {
			return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("TOOL_LOOP_EXHAUSTED", chatErrorMessage(err), nil))
		}
		return common.SendServiceError(c, err, "Assistant")
	}
	return c.JSON(http.StatusOK, reply)
}

func (h *AssistantHandlers) chatEventStream(c echo.Context, scope assistant.Scope, messages []assistant.Message) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	write := func(ev assistant.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(res, "event: %s\ndata: %s\n\n", ev.Type, data)
		res.Flush()
	}

	if _, err := h.engine.Chat(c.Request().Context(), scope, messages, write); err != nil {
		common.LoggerFromContext(c.Request().Context()).Warn("assistant chat failed", zap.Error(err))
		write(assistant.Event{Type: assistant.EventError, Error: chatErrorMessage(err)})
	}
	return nil
}

// wsInbound is a client frame: {"type":"chat","messages":[...]} starts a
// chat, {"type":"stop"} cancels the running one.
type wsInbound struct {
	Type     string              `json:"type"`
	Messages []assistant.Message `json:"messages,omitempty"`
}

// chatSession serves one WebSocket connection. At most one chat runs at a
// time; all writes go through send and the write pump.
type chatSession struct {
	h      *AssistantHandlers
	conn   *websocket.Conn
	scope  assistant.Scope
	logger *zap.Logger

	send chan assistant.Event
	done chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// Stream godoc
// @Summary      Assistant over WebSocket
// @Description  Send {"type":"chat","messages":[...]} to start and {"type":"stop"} to cancel. Receives delta, tool, done and error events.
// @Tags         assistant
// @Router       /assistant/ws [get]
func (h *AssistantHandlers) Stream(c echo.Context) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already replied.
		common.LoggerFromContext(c.Request().Context()).Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}

	s := &chatSession{
		h:      h,
		conn:   conn,
		scope:  scope,
		logger: common.LoggerFromContext(c.Request().Context()),
		send:   make(chan assistant.Event, wsSendBuffer),
		done:   make(chan struct{}),
	}
	go s.writePump()
	s.readPump(context.WithoutCancel(c.Request().Context()))
	return nil
}

func (s *chatSession) readPump(ctx context.Context) {
	defer func() {
		s.stop()
		s.running.Wait()
		close(s.send)
		<-s.done
		s.conn.Close()
	}()

	s.conn.SetReadLimit(wsMaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg wsInbound
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.Warn("unexpected websocket close", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "stop":
			s.stop()
		case "chat":
			if !s.start(ctx, msg.Messages) {
				s.emit(assistant.Event{Type: assistant.EventError, Error: "A chat is already running"})
			}
		default:
			s.emit(assistant.Event{Type: assistant.EventError, Error: fmt.Sprintf("Unknown message type %q", msg.Type)})
		}
	}
}

func (s *chatSession) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	for {
		select {
		case ev, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(ev); err != nil {
				s.logger.Warn("websocket write failed", zap.Error(err))
				// Unblock the reader so the session tears down.
				s.conn.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conn.Close()
				return
			}
		}
	}
}

// emit queues an event unless the write pump is gone.
func (s *chatSession) emit(ev assistant.Event) {
	select {
	case s.send <- ev:
	case <-s.done:
	}
}

func (s *chatSession) start(parent context.Context, messages []assistant.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.running.Add(1)

	go func() {
		defer s.running.Done()
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("assistant chat panicked", zap.Any("panic", p), zap.Stack("stack"))
				s.emit(assistant.Event{Type: assistant.EventError, Error: "internal error"})
			}
		}()
		defer func() {
			s.mu.Lock()
			s.cancel = nil
			s.mu.Unlock()
			cancel()
		}()

		if _, err := s.h.engine.Chat(ctx, s.scope, messages, s.emit); err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Warn("assistant chat failed", zap.Error(err))
			}
			s.emit(assistant.Event{Type: assistant.EventError, Error: chatErrorMessage(err)})
		}
	}()
	return true
}

func (s *chatSession) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}
