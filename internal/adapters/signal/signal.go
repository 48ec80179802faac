// Package signal is the WebSocket adapter: it accepts connections, pumps
// frames in both directions and translates wire events into hub operations.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/huddlenet/huddle/internal/config"
	"github.com/huddlenet/huddle/internal/domain"
	"github.com/huddlenet/huddle/internal/hub"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Orch    *hub.Orchestrator
	Cfg     *config.Config
	Limiter *JoinRateLimiter
}

func NewController(orch *hub.Orchestrator, cfg *config.Config) *Controller {
	return &Controller{
		Orch:    orch,
		Cfg:     cfg,
		Limiter: NewJoinRateLimiter(cfg.JoinLimit, cfg.JoinInterval),
	}
}

// WsConn wraps one websocket with a buffered outbound channel. TrySend never
// blocks: a full buffer is reported as backpressure and the frame is dropped.
type WsConn struct {
	conn *websocket.Conn
	send chan hub.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f hub.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	// Permissive cross-origin policy: membership is self-declared and there
	// is nothing to protect behind the origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and binds the connection into the hub. The
// connection id is the client token minted by the router middleware.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	sid := domain.ConnID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("conn", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan hub.Frame, ctl.Cfg.SendBuffer),
	}
	ctl.Orch.Connect(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
