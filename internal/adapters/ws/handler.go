package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smuotoe/geoelevate/internal/auth"
	"github.com/smuotoe/geoelevate/internal/match"
	"github.com/smuotoe/geoelevate/pkg/logger"
	"github.com/smuotoe/geoelevate/pkg/metrics"
)

// Close code for a rejected handshake. Application-defined, per RFC 6455
// range 4000-4999.
const closeNotAuthenticated = 4401

// Client-to-server message types.
const (
	typeJoinMatch    = "join_match"
	typeSubmitAnswer = "submit_answer"
	typeLeaveMatch   = "leave_match"
	typePing         = "ping"
)

// Error codes surfaced to clients.
const (
	codeMatchNotFound      = "match_not_found_or_inactive"
	codeNotParticipant     = "not_a_participant"
	codeInvalidTiming      = "invalid_timing"
	codeRateLimited        = "rate_limited"
	codeUnknownMessageType = "unknown_message_type"
	codeInvalidPayload     = "invalid_payload"
	codeInternal           = "internal_error"
)

// clientMessage is the envelope for every inbound frame.
type clientMessage struct {
	Type          string `json:"type"`
	MatchID       int64  `json:"matchId"`
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
	TimeMs        int    `json:"timeMs"`
}

// Matches is the slice of the coordinator the transport needs.
type Matches interface {
	Join(ctx context.Context, identity, matchID int64, conn match.Conn) error
	SubmitAnswer(ctx context.Context, identity, matchID int64, questionIndex int, answer string, elapsedMs int) error
	Leave(ctx context.Context, identity, matchID int64)
	Disconnect(ctx context.Context, identity int64)
}

// Handler upgrades HTTP requests to authenticated match connections.
type Handler struct {
	upgrader websocket.Upgrader
	auth     auth.Authenticator
	matches  Matches
	registry *Registry
	logger   logger.Logger
}

// HandlerOption applies a configuration option to the Handler.
type HandlerOption func(*Handler)

// WithCheckOrigin overrides the upgrader's origin policy.
func WithCheckOrigin(fn func(r *http.Request) bool) HandlerOption {
	return func(h *Handler) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// WithHandlerLogger sets a custom logger.
func WithHandlerLogger(l logger.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler wires the transport around the authenticator and coordinator.
func NewHandler(authenticator auth.Authenticator, matches Matches, registry *Registry, opts ...HandlerOption) *Handler {
	h := &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser client connects cross-origin from the web app.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		auth:     authenticator,
		matches:  matches,
		registry: registry,
		logger:   logger.Get().Named("ws"),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// ServeHTTP handles GET /ws?token=... by upgrading and running the
// connection until the peer goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	identity, err := h.auth.Authenticate(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		msg := websocket.FormatCloseMessage(closeNotAuthenticated, "not_authenticated")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	c := newClient(identity, conn)
	if prev := h.registry.Register(c); prev != nil {
		prev.shutdown()
	}
	metrics.RecordConnectionOpened()
	h.logger.Info(r.Context(), "connection opened",
		logger.String("clientID", c.id),
		logger.Int64("identity", identity),
	)

	go c.writePump()
	h.readLoop(c)
}

// readLoop consumes frames until the socket errors out, then tears the
// connection down and forfeits any match the identity was playing.
func (h *Handler) readLoop(c *client) {
	ctx := context.Background()

	defer func() {
		c.shutdown()
		// A reconnect displaces this client in the registry before its read
		// loop winds down; only a departure of the current connection
		// forfeits the identity's matches.
		if h.registry.Unregister(c) {
			h.matches.Disconnect(ctx, c.identity)
		}
		metrics.RecordConnectionClosed()
		h.logger.Info(ctx, "connection closed",
			logger.String("clientID", c.id),
			logger.Int64("identity", c.identity),
		)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn(ctx, "unexpected close",
					logger.String("clientID", c.id),
					logger.Error(err),
				)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.Send(match.NewError(codeInvalidPayload, "malformed message"))
			continue
		}

		start := time.Now()
		h.dispatch(ctx, c, msg)
		metrics.RecordMessage(msg.Type)
		metrics.RecordMessageLatency(msg.Type, float64(time.Since(start).Milliseconds()))
	}
}

func (h *Handler) dispatch(ctx context.Context, c *client, msg clientMessage) {
	switch msg.Type {
	case typeJoinMatch:
		if err := h.matches.Join(ctx, c.identity, msg.MatchID, c); err != nil {
			c.Send(h.toError(ctx, c, err))
		}
	case typeSubmitAnswer:
		if err := h.matches.SubmitAnswer(ctx, c.identity, msg.MatchID, msg.QuestionIndex, msg.Answer, msg.TimeMs); err != nil {
			c.Send(h.toError(ctx, c, err))
		}
	case typeLeaveMatch:
		h.matches.Leave(ctx, c.identity, msg.MatchID)
	case typePing:
		c.Send(match.NewPong())
	default:
		c.Send(match.NewError(codeUnknownMessageType, "unknown message type: "+msg.Type))
	}
}

// toError maps coordinator errors onto the wire taxonomy.
func (h *Handler) toError(ctx context.Context, c *client, err error) match.ErrorMessage {
	switch {
	case errors.Is(err, match.ErrMatchNotFound):
		return match.NewError(codeMatchNotFound, "match not found or not active")
	case errors.Is(err, match.ErrNotParticipant):
		return match.NewError(codeNotParticipant, "you are not a participant in this match")
	case errors.Is(err, match.ErrInvalidTiming):
		return match.NewError(codeInvalidTiming, "answer timing is not plausible")
	case errors.Is(err, match.ErrRateLimited):
		return match.NewError(codeRateLimited, "too many submissions, slow down")
	default:
		h.logger.Error(ctx, "unhandled coordinator error",
			logger.String("clientID", c.id),
			logger.Error(err),
		)
		return match.NewError(codeInternal, "internal error")
	}
}
