package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"taskboard/internal/fanout"
	"taskboard/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// accessEvents may end a user's right to view the board they concern.
var accessEvents = map[string]bool{
	"member.removed":  true,
	"board.updated":   true,
	"board.destroyed": true,
}

// SocketHandler streams change envelopes to connected clients over a
// websocket. Every connection listens on the caller's user channel plus the
// board channels it asked for and may view. A board channel is dropped once
// the caller loses access to the board.
type SocketHandler struct {
	svc      *service.Service
	hub      *fanout.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewSocketHandler(svc *service.Service, hub *fanout.Hub, log zerolog.Logger) *SocketHandler {
	return &SocketHandler{
		svc: svc,
		hub: hub,
		log: log.With().Str("component", "socket").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Connect godoc
// @Summary      Subscribe to live change events
// @Description  Upgrades to a websocket. boards is a comma separated list of board IDs.
// @Tags         Realtime
// @Security     BearerAuth
// @Param        boards query string false "Board IDs"
// @Param        access_token query string false "JWT when headers cannot be set"
// @Success      101
// @Router       /ws [get]
func (h *SocketHandler) Connect(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	channels := []string{fanout.UserChannel(userID)}
	for _, raw := range strings.Split(c.Query("boards"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		boardID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
			return
		}
		if err := h.svc.CanSubscribe(c.Request.Context(), userID, boardID); err != nil {
			respondError(c, err)
			return
		}
		channels = append(channels, fanout.BoardChannel(boardID))
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	sub := h.hub.Subscribe(channels...)
	h.log.Debug().Str("user_id", userID.String()).Strs("channels", channels).Msg("client connected")

	go h.readLoop(conn, sub)
	h.writeLoop(c.Request.Context(), userID, conn, sub)
}

// readLoop discards client frames and closes the subscription when the
// peer goes away, which ends writeLoop.
func (h *SocketHandler) readLoop(conn *websocket.Conn, sub *fanout.Subscription) {
	defer sub.Close()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *SocketHandler) writeLoop(ctx context.Context, userID uuid.UUID, conn *websocket.Conn, sub *fanout.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		_ = conn.Close()
	}()

	for {
		select {
		case env, ok := <-sub.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			h.recheck(ctx, userID, sub, env)
			if !sub.Has(env.Channel) {
				continue
			}
			if err := conn.WriteJSON(env); err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// recheck leaves the channel of the board env concerns when userID may no
// longer view that board.
func (h *SocketHandler) recheck(ctx context.Context, userID uuid.UUID, sub *fanout.Subscription, env fanout.Envelope) {
	if !accessEvents[env.Event] {
		return
	}
	boardID, err := uuid.Parse(fmt.Sprint(env.Payload["board_id"]))
	if err != nil {
		return
	}
	channel := fanout.BoardChannel(boardID)
	if !sub.Has(channel) {
		return
	}
	if err := h.svc.CanSubscribe(ctx, userID, boardID); err != nil {
		sub.Leave(channel)
		h.log.Debug().Err(err).Str("user_id", userID.String()).Str("channel", channel).Msg("board access revoked")
	}
}
