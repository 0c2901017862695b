package handlers

import (
	"strconv"
	"time"

	"secondhand-market-server/internal/chat"
	"secondhand-market-server/internal/middleware"
	"secondhand-market-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles room and message requests.
type ChatHandler struct {
	Chat *chat.Service
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatSvc *chat.Service) *ChatHandler {
	return &ChatHandler{Chat: chatSvc}
}

// OpenRoomRequest represents the request body for opening a conversation.
type OpenRoomRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// OpenRoom returns the room shared with another user, creating it on
// first contact.
func (h *ChatHandler) OpenRoom(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req OpenRoomRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	room, err := h.Chat.GetOrCreateRoom(c.Request.Context(), userID, req.UserID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Room ready", room)
}

// ListRooms returns the caller's rooms with per-room summaries.
func (h *ChatHandler) ListRooms(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	rooms, total, err := h.Chat.ListRooms(c.Request.Context(), userID, page, size)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Rooms fetched successfully", gin.H{
		"rooms": rooms,
		"total": total,
		"page":  page,
	})
}

// TotalUnread returns the caller's unread count across all rooms.
func (h *ChatHandler) TotalUnread(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	total, err := h.Chat.TotalUnread(c.Request.Context(), userID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Unread count fetched successfully", gin.H{"unreadCount": total})
}

// ListMessages returns a page of room history, newest first. An optional
// before query parameter (RFC 3339) cursors into older history.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	roomID := c.Param("roomId")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.BadRequest(c, "Invalid before timestamp, expected RFC 3339")
			return
		}
		before = &t
	}

	messages, total, err := h.Chat.ListMessages(c.Request.Context(), roomID, userID, page, size, before)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Messages fetched successfully", gin.H{
		"messages": messages,
		"total":    total,
		"page":     page,
	})
}

// SendMessage posts a message into a room.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	roomID := c.Param("roomId")

	var req chat.SendMessageInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	msg, err := h.Chat.SendMessage(c.Request.Context(), roomID, userID, req)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Created(c, "Message sent", msg)
}

// MarkRoomRead marks all incoming messages in the room as read.
func (h *ChatHandler) MarkRoomRead(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	roomID := c.Param("roomId")

	if err := h.Chat.MarkRoomRead(c.Request.Context(), roomID, userID); err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Room marked as read", nil)
}

// TogglePin flips the caller's pin flag on the room.
func (h *ChatHandler) TogglePin(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	roomID := c.Param("roomId")

	pinned, err := h.Chat.TogglePin(c.Request.Context(), roomID, userID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Pin updated", gin.H{"pinned": pinned})
}

// ToggleMute flips the caller's mute flag on the room.
func (h *ChatHandler) ToggleMute(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	roomID := c.Param("roomId")

	muted, err := h.Chat.ToggleMute(c.Request.Context(), roomID, userID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Mute updated", gin.H{"muted": muted})
}

// CloseRoom archives the room.
func (h *ChatHandler) CloseRoom(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	roomID := c.Param("roomId")

	if err := h.Chat.CloseRoom(c.Request.Context(), roomID, userID); err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Room closed", nil)
}

// SearchMessages finds text messages in a room matching a keyword.
func (h *ChatHandler) SearchMessages(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	roomID := c.Param("roomId")

	messages, err := h.Chat.SearchMessages(c.Request.Context(), roomID, userID, c.Query("keyword"))
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Search results", messages)
}

// DeliveryStats counts the caller's sent messages in a room by status.
func (h *ChatHandler) DeliveryStats(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	roomID := c.Param("roomId")

	stats, err := h.Chat.DeliveryStats(c.Request.Context(), roomID, userID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Delivery stats", stats)
}

// RecallMessage retracts a message the caller sent within the last two
// minutes.
func (h *ChatHandler) RecallMessage(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	messageID := c.Param("messageId")

	msg, err := h.Chat.RecallMessage(c.Request.Context(), messageID, userID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Message recalled", msg)
}

// MarkDelivered acknowledges receipt of a single message.
func (h *ChatHandler) MarkDelivered(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	messageID := c.Param("messageId")

	msg, err := h.Chat.MarkDelivered(c.Request.Context(), messageID, userID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Message marked as delivered", msg)
}

// MarkMessageRead marks a single message as read.
func (h *ChatHandler) MarkMessageRead(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	messageID := c.Param("messageId")

	msg, err := h.Chat.MarkMessageRead(c.Request.Context(), messageID, userID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Message marked as read", msg)
}
