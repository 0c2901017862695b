// Package chat owns rooms and messages: the one-room-per-pair
// invariant, atomic summary bookkeeping, and the message lifecycle.
package chat

import (
	"context"
	"time"

	"secondhand-market-server/internal/errs"
	"secondhand-market-server/internal/models"
	"secondhand-market-server/internal/presence"
	"secondhand-market-server/internal/ws"

	"gorm.io/gorm"
)

// Service exposes the conversation store and the message lifecycle
// engine over the shared database, fanning events out through the hub.
type Service struct {
	DB       *gorm.DB
	Hub      *ws.Hub
	Presence *presence.Tracker
}

// NewService creates a chat service.
func NewService(db *gorm.DB, hub *ws.Hub, tracker *presence.Tracker) *Service {
	return &Service{DB: db, Hub: hub, Presence: tracker}
}

// RoomSummary is the per-caller view of a room in list responses.
type RoomSummary struct {
	ID                 string               `json:"id"`
	Status             models.RoomStatus    `json:"status"`
	Partner            models.UserSanitized `json:"partner"`
	LastMessagePreview string               `json:"lastMessagePreview,omitempty"`
	LastMessageKind    models.MessageKind   `json:"lastMessageKind,omitempty"`
	LastMessageAt      *time.Time           `json:"lastMessageAt,omitempty"`
	UnreadCount        int                  `json:"unreadCount"`
	TotalMessages      int                  `json:"totalMessages"`
	Pinned             bool                 `json:"pinned"`
	Muted              bool                 `json:"muted"`
}

// GetOrCreateRoom returns the unique room for the unordered pair of
// users, creating it on first contact. Concurrent calls for the same
// pair are resolved by the unique index on the canonical pair key: the
// loser of the insert race re-queries and returns the winner's room.
func (s *Service) GetOrCreateRoom(ctx context.Context, userID1, userID2 string) (*models.Room, error) {
	if userID1 == userID2 {
		return nil, errs.Validationf("cannot open a conversation with yourself")
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id IN ?", []string{userID1, userID2}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count != 2 {
		return nil, errs.NotFoundf("user not found")
	}

	key := models.PairKey(userID1, userID2)

	var room models.Room
	err := s.DB.WithContext(ctx).First(&room, "pair_key = ?", key).Error
	if err == nil {
		return &room, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	room = models.NewRoom(userID1, userID2)
	if err := s.DB.WithContext(ctx).Create(&room).Error; err != nil {
		// Lost the creation race: the unique index rejected the
		// duplicate, so the winner's room must exist now.
		var existing models.Room
		if err2 := s.DB.WithContext(ctx).First(&existing, "pair_key = ?", key).Error; err2 == nil {
			return &existing, nil
		}
		return nil, errs.Conflictf("room creation conflict for pair %s", key)
	}
	return &room, nil
}

// GetRoom loads a room and verifies the caller participates in it.
func (s *Service) GetRoom(ctx context.Context, roomID, userID string) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).First(&room, "id = ?", roomID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("room %s not found", roomID)
		}
		return nil, err
	}
	if !room.IsParticipant(userID) {
		return nil, errs.Forbiddenf("user is not a participant of room %s", roomID)
	}
	return &room, nil
}

// ListRooms returns a page of the caller's rooms, most recently active
// first, each with the last-message snapshot and the caller's unread
// count.
func (s *Service) ListRooms(ctx context.Context, userID string, page, size int) ([]RoomSummary, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	query := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rooms []models.Room
	if err := query.Preload("UserA").Preload("UserB").
		Order("updated_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&rooms).Error; err != nil {
		return nil, 0, err
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for i := range rooms {
		summaries = append(summaries, s.summarize(&rooms[i], userID))
	}
	return summaries, total, nil
}

func (s *Service) summarize(room *models.Room, userID string) RoomSummary {
	partner := room.UserA
	if room.UserAID == userID {
		partner = room.UserB
	}
	return RoomSummary{
		ID:                 room.ID,
		Status:             room.Status,
		Partner:            partner.Sanitize(),
		LastMessagePreview: room.LastMessagePreview,
		LastMessageKind:    room.LastMessageKind,
		LastMessageAt:      room.LastMessageAt,
		UnreadCount:        room.UnreadFor(userID),
		TotalMessages:      room.TotalMessages,
		Pinned:             room.IsPinned(userID),
		Muted:              room.IsMuted(userID),
	}
}

// recordMessage persists the message and updates the room summary as
// one transaction. The counters use SQL-side increments so concurrent
// sends to the same room cannot lose updates, and system messages
// increment nobody's unread counter.
func (s *Service) recordMessage(ctx context.Context, room *models.Room, msg *models.Message) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		senderID := ""
		if msg.SenderID != nil {
			senderID = *msg.SenderID
		}
		updates := map[string]interface{}{
			"last_message_id":        msg.ID,
			"last_message_preview":   msg.DisplayContent(),
			"last_message_kind":      msg.Kind,
			"last_message_sender_id": senderID,
			"last_message_at":        msg.SentAt,
			"total_messages":         gorm.Expr("total_messages + 1"),
		}
		if msg.SenderID != nil {
			if col := room.UnreadColumn(room.OtherParticipant(senderID)); col != "" {
				updates[col] = gorm.Expr(col + " + 1")
			}
		}
		return tx.Model(&models.Room{}).Where("id = ?", room.ID).Updates(updates).Error
	})
}

// MarkRoomRead marks every message from the other side as read and
// zeroes the caller's unread counter, leaving the peer's untouched.
func (s *Service) MarkRoomRead(ctx context.Context, roomID, userID string) error {
	room, err := s.GetRoom(ctx, roomID, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("room_id = ? AND sender_id IS NOT NULL AND sender_id <> ? AND status IN ?",
				roomID, userID, []models.MessageStatus{models.MessageStatusSent, models.MessageStatusDelivered}).
			Updates(map[string]interface{}{
				"status":  models.MessageStatusRead,
				"read_at": now,
			}).Error; err != nil {
			return err
		}
		col := room.UnreadColumn(userID)
		return tx.Model(&models.Room{}).Where("id = ?", roomID).
			Update(col, 0).Error
	})
	if err != nil {
		return err
	}

	s.Hub.PublishToRoom(roomID, ws.Event{
		Type: ws.EventReadStatus,
		Data: map[string]interface{}{
			"roomId":    roomID,
			"userId":    userID,
			"timestamp": now,
		},
	})
	return nil
}

// TotalUnread returns the caller's unread count summed over all rooms.
func (s *Service) TotalUnread(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.DB.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(CASE WHEN user_a_id = ? THEN user_a_unread ELSE user_b_unread END), 0)
		 FROM rooms WHERE user_a_id = ? OR user_b_id = ?`,
		userID, userID, userID).Scan(&total).Error
	return total, err
}

// TogglePin flips the caller's pinned flag and returns the new value.
func (s *Service) TogglePin(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := s.GetRoom(ctx, roomID, userID)
	if err != nil {
		return false, err
	}
	pinned := !room.IsPinned(userID)
	col := "user_a_pinned"
	if room.UserBID == userID {
		col = "user_b_pinned"
	}
	if err := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", roomID).Update(col, pinned).Error; err != nil {
		return false, err
	}
	return pinned, nil
}

// ToggleMute flips the caller's muted flag and returns the new value.
func (s *Service) ToggleMute(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := s.GetRoom(ctx, roomID, userID)
	if err != nil {
		return false, err
	}
	muted := !room.IsMuted(userID)
	col := "user_a_muted"
	if room.UserBID == userID {
		col = "user_b_muted"
	}
	if err := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", roomID).Update(col, muted).Error; err != nil {
		return false, err
	}
	return muted, nil
}

// CloseRoom moves the room to CLOSED. Rooms are never deleted.
func (s *Service) CloseRoom(ctx context.Context, roomID, userID string) error {
	if _, err := s.GetRoom(ctx, roomID, userID); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", roomID).Update("status", models.RoomStatusClosed).Error
}
