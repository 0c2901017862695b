package handlers

import (
	"context"
	"log"

	"secondhand-market-server/internal/chat"
	"secondhand-market-server/internal/config"
	"secondhand-market-server/internal/presence"
	"secondhand-market-server/internal/utils"
	"secondhand-market-server/internal/ws"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// WSHandler upgrades authenticated connections and drives the per-client
// read loop.
type WSHandler struct {
	Cfg      *config.Config
	Hub      *ws.Hub
	Chat     *chat.Service
	Presence *presence.Tracker
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(cfg *config.Config, hub *ws.Hub, chatSvc *chat.Service, tracker *presence.Tracker) *WSHandler {
	return &WSHandler{Cfg: cfg, Hub: hub, Chat: chatSvc, Presence: tracker}
}

// clientCommand is the envelope clients send over the socket.
type clientCommand struct {
	Action  string                `json:"action"`
	RoomID  string                `json:"roomId,omitempty"`
	Message chat.SendMessageInput `json:"message,omitempty"`
}

// Serve authenticates via the token query parameter (browsers cannot set
// headers on websocket upgrades), upgrades, and reads commands until the
// peer goes away. Presence is flipped on connect and disconnect.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Unauthorized(c, "Token query parameter required")
		return
	}
	claims, err := utils.ValidateToken(token, h.Cfg.JWTSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid token: "+err.Error())
		return
	}
	userID := claims.UserID

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: h.Cfg.WSInsecureSkipVerify,
		OriginPatterns:     []string{h.Cfg.Origin},
	})
	if err != nil {
		log.Printf("ws: upgrade for user %s failed: %v", userID, err)
		return
	}

	client := h.Hub.AddClient(userID, conn)
	ctx := c.Request.Context()
	h.Presence.SetOnline(ctx, userID)

	defer func() {
		h.Hub.RemoveClient(client)
		// The request context is gone once the handler returns.
		h.Presence.SetOffline(context.Background(), userID)
	}()

	for {
		var cmd clientCommand
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			return
		}
		h.dispatch(ctx, client, cmd)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, client *ws.Client, cmd clientCommand) {
	userID := client.UserID

	switch cmd.Action {
	case "subscribe":
		if _, err := h.Chat.GetRoom(ctx, cmd.RoomID, userID); err != nil {
			h.sendError(client, err)
			return
		}
		h.Hub.Subscribe(client, cmd.RoomID)
		h.Presence.TrackRoom(ctx, userID, cmd.RoomID)

	case "unsubscribe":
		h.Hub.Unsubscribe(client, cmd.RoomID)

	case "send":
		if _, err := h.Chat.SendMessage(ctx, cmd.RoomID, userID, cmd.Message); err != nil {
			h.sendError(client, err)
		}

	case "read":
		if err := h.Chat.MarkRoomRead(ctx, cmd.RoomID, userID); err != nil {
			h.sendError(client, err)
		}

	case "heartbeat":
		h.Presence.Heartbeat(ctx, userID)

	default:
		h.sendError(client, nil)
	}
}

func (h *WSHandler) sendError(client *ws.Client, err error) {
	msg := "unknown action"
	if err != nil {
		msg = err.Error()
	}
	select {
	case client.Send <- ws.Event{Type: ws.EventError, Data: gin.H{"error": msg}}:
	default:
	}
}
