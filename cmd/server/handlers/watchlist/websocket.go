package watchlist

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"crypto-pulse/cmd/server/ctxkeys"
	"crypto-pulse/cmd/server/handlers/httperr"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/services/watchlist"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// WSClosePolicyViolation is sent when the session lifetime runs out.
	WSClosePolicyViolation = 1008

	wsWriteTimeout     = 10 * time.Second
	wsPingInterval     = 25 * time.Second
	wsPingWriteTimeout = 5 * time.Second
)

// Hub registers live stream connections.
type Hub interface {
	Subscribe(connID ulid.ULID, userID bson.ObjectID) (*watchlist.Subscriber, func())
	Unsubscribe(connID ulid.ULID)
}

// TokenParser verifies an access token and returns its user id.
type TokenParser interface {
	ParseAccessToken(raw string) (bson.ObjectID, error)
}

// WebSocketHandlers streams watchlist changes to the owning user.
type WebSocketHandlers struct {
	hub           Hub
	tokens        TokenParser
	maxSessionSec int
	pingInterval  time.Duration

	// workers counts live per-connection goroutines.
	workers atomic.Int64
}

// NewWebSocketHandlers creates new WebSocket handlers
func NewWebSocketHandlers(hub Hub, tokens TokenParser, maxSessionSec int) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:           hub,
		tokens:        tokens,
		maxSessionSec: maxSessionSec,
		pingInterval:  wsPingInterval,
	}
}

// spawn runs fn on its own goroutine tracked by wg and h.workers.
func (h *WebSocketHandlers) spawn(wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	h.workers.Add(1)
	go func() {
		defer wg.Done()
		defer h.workers.Add(-1)
		fn()
	}()
}

// WSUpgrade authenticates the ?token= query parameter before the upgrade.
// @Summary Watchlist change stream
// @Description WebSocket of {"type":"added"|"removed","coin":"<id>"} events for the token's user
// @Tags watchlist
// @Param token query string true "Access token"
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /ws/watchlist/stream [get]
func (h *WebSocketHandlers) WSUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		logger.L().Warn("websocket upgrade required", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.E{Status: fiber.StatusBadRequest, Message: "WebSocket upgrade required"})
	}

	token := c.Query("token")
	if token == "" {
		logger.L().Warn("missing token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.E{Status: fiber.StatusUnauthorized, Message: "Missing token"})
	}

	userID, err := h.tokens.ParseAccessToken(token)
	if err != nil {
		logger.L().Warn("invalid token in websocket upgrade", "handler", "WSUpgrade", "error", err)
		return httperr.Fail(httperr.E{Status: fiber.StatusUnauthorized, Message: "Invalid token"})
	}

	c.Locals(ctxkeys.UserIDKey, userID.Hex())
	c.Locals(ctxkeys.ParentCtxKey, c.UserContext())
	return c.Next()
}

type wsConnection struct {
	userID bson.ObjectID
	connID ulid.ULID

	// writeMu serializes frames; the socket allows a single writer.
	writeMu sync.Mutex
}

// write sends one frame under writeMu with the given deadline.
func (w *wsConnection) write(c *websocket.Conn, timeout time.Duration, send func() error) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := c.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return send()
}

func (w *wsConnection) logArgs(args ...any) []any {
	return append(args, "user_id", w.userID.Hex(), "conn_id", w.connID.String())
}

// WSStream pumps hub events to the client until it disconnects, the session
// expires or the server shuts down.
func (h *WebSocketHandlers) WSStream(c *websocket.Conn) {
	conn, parentCtx, err := h.initializeConnection(c)
	if err != nil {
		h.closeConnection(c)
		return
	}

	ctx, cancelCtx := context.WithCancel(parentCtx)
	defer cancelCtx()

	sub, cancel := h.hub.Subscribe(conn.connID, conn.userID)
	defer cancel()

	logger.L().Info("WebSocket connection established", conn.logArgs()...)

	var wg sync.WaitGroup
	h.spawn(&wg, func() { h.expireSession(ctx, c, conn, cancelCtx) })
	h.spawn(&wg, func() { h.keepAlive(ctx, c, conn) })
	h.spawn(&wg, func() { h.handleOutgoingMessages(ctx, c, conn, sub) })

	h.handleIncomingMessages(c, conn)

	// the socket is released when WSStream returns; no writer may outlive it
	cancelCtx()
	wg.Wait()

	logger.L().Info("WebSocket connection closed", conn.logArgs()...)
}

// expireSession closes the socket with WSClosePolicyViolation once the
// session lifetime is spent, unblocking the reader.
func (h *WebSocketHandlers) expireSession(ctx context.Context, c *websocket.Conn, conn *wsConnection, cancel context.CancelFunc) {
	timer := time.NewTimer(time.Duration(h.maxSessionSec) * time.Second)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		logger.L().Info("WebSocket session timeout", conn.logArgs()...)
		h.sendCloseMessage(c, conn)
		h.closeConnection(c)
		cancel()
	}
}

func (h *WebSocketHandlers) initializeConnection(c *websocket.Conn) (*wsConnection, context.Context, error) {
	raw, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		logger.L().Error("user id missing in WebSocket context")
		return nil, nil, errors.New("user id not found")
	}

	userID, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		logger.L().Error("invalid user id in WebSocket context", "user_id", raw, "error", err)
		return nil, nil, err
	}

	parentCtx, ok := c.Locals(ctxkeys.ParentCtxKey).(context.Context)
	if !ok {
		logger.L().Error("parent context missing in WebSocket context")
		return nil, nil, errors.New("parent context not found")
	}

	return &wsConnection{
		userID: userID,
		connID: ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader),
	}, parentCtx, nil
}

func (h *WebSocketHandlers) closeConnection(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		logger.L().Debug("failed to close WebSocket connection", "error", err)
	}
}

func (h *WebSocketHandlers) sendCloseMessage(c *websocket.Conn, conn *wsConnection) {
	err := conn.write(c, wsWriteTimeout, func() error {
		return c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(WSClosePolicyViolation, "session timeout"))
	})
	if err != nil {
		logger.L().Warn("failed to send close message", conn.logArgs("error", err)...)
	}
}

// keepAlive pings the client every h.pingInterval until ctx ends.
func (h *WebSocketHandlers) keepAlive(ctx context.Context, c *websocket.Conn, conn *wsConnection) {
	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			err := conn.write(c, wsPingWriteTimeout, func() error {
				return c.WriteMessage(websocket.PingMessage, nil)
			})
			if err != nil {
				logger.L().Debug("ping failed", conn.logArgs("error", err)...)
				return
			}
		}
	}
}

func (h *WebSocketHandlers) handleOutgoingMessages(ctx context.Context, c *websocket.Conn, conn *wsConnection, sub *watchlist.Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("panic in WebSocket sender", conn.logArgs("error", r)...)
		}
	}()

	for {
		select {
		case ev, ok := <-sub.Ch:
			if !ok {
				return
			}
			if err := conn.write(c, wsWriteTimeout, func() error { return c.WriteJSON(ev) }); err != nil {
				logger.L().Warn("failed to write WebSocket message", conn.logArgs("error", err)...)
				return
			}
		case <-sub.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleIncomingMessages drains client frames; the stream is one-way.
func (h *WebSocketHandlers) handleIncomingMessages(c *websocket.Conn, conn *wsConnection) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.L().Warn("WebSocket read error", conn.logArgs("error", err)...)
			}
			return
		}
	}
}

// LogWSConnections logs every upgrade attempt with the verified user id, if any.
func LogWSConnections(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			user := ""
			if token := c.Query("token"); token != "" {
				if id, err := tokens.ParseAccessToken(token); err == nil {
					user = id.Hex()
				}
			}
			logger.L().Info("WebSocket upgrade attempt", "ip", c.IP(), "user", user)
		}
		return c.Next()
	}
}
