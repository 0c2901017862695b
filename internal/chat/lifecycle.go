package chat

import (
	"context"
	"encoding/json"
	"time"

	"secondhand-market-server/internal/errs"
	"secondhand-market-server/internal/models"
	"secondhand-market-server/internal/ws"

	"gorm.io/gorm"
)

// SendMessageInput carries the kind-specific fields of an outbound
// message. Content holds the text body for TEXT and the file URL for
// IMAGE and VOICE.
type SendMessageInput struct {
	Kind         models.MessageKind `json:"type" binding:"required"`
	Content      string             `json:"content"`
	ThumbnailURL string             `json:"thumbnail,omitempty"`
	ImageWidth   *int               `json:"imageWidth,omitempty"`
	ImageHeight  *int               `json:"imageHeight,omitempty"`
	Duration     *int               `json:"duration,omitempty"`
	FileSize     *int               `json:"fileSize,omitempty"`
	ProductID    string             `json:"productId,omitempty"`
}

// buildMessage constructs the message variant for the requested kind.
// System and transaction kinds cannot be sent by users directly.
func buildMessage(roomID, senderID string, in SendMessageInput) (models.Message, error) {
	switch in.Kind {
	case models.MessageKindText:
		if in.Content == "" {
			return models.Message{}, errs.Validationf("text message requires content")
		}
		return models.NewTextMessage(roomID, senderID, in.Content), nil
	case models.MessageKindImage:
		if in.Content == "" {
			return models.Message{}, errs.Validationf("image message requires a file url")
		}
		return models.NewImageMessage(roomID, senderID, in.Content, in.ThumbnailURL,
			in.ImageWidth, in.ImageHeight, in.FileSize), nil
	case models.MessageKindVoice:
		if in.Content == "" || in.Duration == nil {
			return models.Message{}, errs.Validationf("voice message requires a file url and duration")
		}
		return models.NewVoiceMessage(roomID, senderID, in.Content, in.Duration, in.FileSize), nil
	case models.MessageKindProductCard:
		if in.ProductID == "" {
			return models.Message{}, errs.Validationf("product card requires a product id")
		}
		// Snapshot is filled in by the service once the product is loaded.
		return models.NewProductCardMessage(roomID, senderID, in.ProductID, "", ""), nil
	case models.MessageKindSystem, models.MessageKindTransactionRequest, models.MessageKindTransactionResponse:
		return models.Message{}, errs.Validationf("message kind %s cannot be sent directly", in.Kind)
	}
	return models.Message{}, errs.Validationf("unsupported message kind %q", in.Kind)
}

// SendMessage validates, persists and fans out a user message. The
// fan-out is best-effort: once the write commits, delivery failures are
// logged, never propagated.
func (s *Service) SendMessage(ctx context.Context, roomID, senderID string, in SendMessageInput) (*models.Message, error) {
	room, err := s.GetRoom(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}
	if room.Status == models.RoomStatusBlocked {
		return nil, errs.Forbiddenf("room %s is blocked", roomID)
	}

	msg, err := buildMessage(roomID, senderID, in)
	if err != nil {
		return nil, err
	}

	if msg.Kind == models.MessageKindProductCard {
		var product models.Product
		if err := s.DB.WithContext(ctx).First(&product, "id = ?", in.ProductID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errs.NotFoundf("product %s not found", in.ProductID)
			}
			return nil, err
		}
		snapshot, _ := json.Marshal(map[string]interface{}{
			"id":        product.ID,
			"title":     product.Title,
			"price":     product.Price,
			"status":    product.Status,
			"mainImage": product.MainImage,
		})
		msg.Content = "shared a listing: " + product.Title
		msg.ProductSnapshot = string(snapshot)
	}

	if err := s.recordMessage(ctx, room, &msg); err != nil {
		return nil, err
	}

	s.fanOutMessage(ctx, room, &msg)
	return &msg, nil
}

// PostSystemMessage persists a sender-less message into the room and
// fans it out. It flows through the same summary bookkeeping as user
// messages but increments nobody's unread counter.
func (s *Service) PostSystemMessage(ctx context.Context, roomID string, systemType models.SystemMessageType, content string, systemData interface{}) (*models.Message, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).First(&room, "id = ?", roomID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("room %s not found", roomID)
		}
		return nil, err
	}

	data := ""
	if systemData != nil {
		raw, err := json.Marshal(systemData)
		if err == nil {
			data = string(raw)
		}
	}

	msg := models.NewSystemMessage(roomID, systemType, content, data)
	if err := s.recordMessage(ctx, &room, &msg); err != nil {
		return nil, err
	}

	s.Hub.PublishToRoom(roomID, ws.Event{Type: ws.EventMessage, Data: &msg})
	return &msg, nil
}

func (s *Service) fanOutMessage(ctx context.Context, room *models.Room, msg *models.Message) {
	s.Hub.PublishToRoom(room.ID, ws.Event{Type: ws.EventMessage, Data: msg})

	if msg.SenderID == nil {
		return
	}
	receiverID := room.OtherParticipant(*msg.SenderID)
	if receiverID == "" || room.IsMuted(receiverID) {
		return
	}
	// Cross-room notification on the private topic, so a client viewing
	// a different room still learns about the message.
	s.Hub.PublishToUser(receiverID, ws.Event{
		Type: ws.EventNotification,
		Data: map[string]interface{}{
			"title":     "New message",
			"roomId":    room.ID,
			"preview":   msg.DisplayContent(),
			"timestamp": msg.SentAt,
		},
	})
}

// ListMessages returns a reverse-chronological page of room history.
// A non-nil before timestamp cursors into older history.
func (s *Service) ListMessages(ctx context.Context, roomID, userID string, page, size int, before *time.Time) ([]models.Message, int64, error) {
	if _, err := s.GetRoom(ctx, roomID, userID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	query := s.DB.WithContext(ctx).Model(&models.Message{}).Where("room_id = ?", roomID)
	if before != nil {
		query = query.Where("sent_at < ?", *before)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	if err := query.Order("sent_at DESC, id DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkDelivered advances a message to DELIVERED on behalf of the
// recipient. Already delivered or read messages are left untouched.
func (s *Service) MarkDelivered(ctx context.Context, messageID, userID string) (*models.Message, error) {
	msg, err := s.messageForRecipient(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if !msg.MarkDelivered(time.Now()) {
		return msg, nil
	}
	if err := s.DB.WithContext(ctx).Model(&models.Message{}).Where("id = ?", msg.ID).
		Updates(map[string]interface{}{
			"status":       msg.Status,
			"delivered_at": msg.DeliveredAt,
		}).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkMessageRead advances a single message to READ on behalf of the
// recipient and fans a read receipt out to the room.
func (s *Service) MarkMessageRead(ctx context.Context, messageID, userID string) (*models.Message, error) {
	msg, err := s.messageForRecipient(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if !msg.MarkRead(time.Now()) {
		return msg, nil
	}
	if err := s.DB.WithContext(ctx).Model(&models.Message{}).Where("id = ?", msg.ID).
		Updates(map[string]interface{}{
			"status":  msg.Status,
			"read_at": msg.ReadAt,
		}).Error; err != nil {
		return nil, err
	}

	s.Hub.PublishToRoom(msg.RoomID, ws.Event{
		Type: ws.EventReadStatus,
		Data: map[string]interface{}{
			"roomId":    msg.RoomID,
			"userId":    userID,
			"messageId": msg.ID,
			"timestamp": msg.ReadAt,
		},
	})
	return msg, nil
}

// messageForRecipient loads a message and verifies the caller is a room
// participant other than the sender.
func (s *Service) messageForRecipient(ctx context.Context, messageID, userID string) (*models.Message, error) {
	var msg models.Message
	if err := s.DB.WithContext(ctx).First(&msg, "id = ?", messageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("message %s not found", messageID)
		}
		return nil, err
	}
	if _, err := s.GetRoom(ctx, msg.RoomID, userID); err != nil {
		return nil, err
	}
	if msg.SentBy(userID) {
		return nil, errs.Forbiddenf("sender cannot acknowledge their own message")
	}
	return &msg, nil
}

// RecallMessage retracts a message within the recall window. Clients
// that already rendered it receive an update event; the stored content
// is irreversibly replaced by the placeholder.
func (s *Service) RecallMessage(ctx context.Context, messageID, userID string) (*models.Message, error) {
	var msg models.Message
	if err := s.DB.WithContext(ctx).First(&msg, "id = ?", messageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("message %s not found", messageID)
		}
		return nil, err
	}
	if !msg.SentBy(userID) {
		return nil, errs.Forbiddenf("only the sender may recall a message")
	}
	if msg.Recalled {
		return nil, errs.InvalidStatef("message %s is already recalled", messageID)
	}
	now := time.Now()
	if !msg.CanRecall(now) {
		return nil, errs.Validationf("recall window of %s has elapsed", models.RecallWindow)
	}

	msg.Recall(now)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).Where("id = ?", msg.ID).
			Updates(map[string]interface{}{
				"content":     msg.Content,
				"recalled":    true,
				"recalled_at": msg.RecalledAt,
			}).Error; err != nil {
			return err
		}
		// Keep the room preview consistent when the recalled message is
		// the latest one.
		return tx.Model(&models.Room{}).
			Where("id = ? AND last_message_id = ?", msg.RoomID, msg.ID).
			Update("last_message_preview", models.RecalledPlaceholder).Error
	})
	if err != nil {
		return nil, err
	}

	s.Hub.PublishToRoom(msg.RoomID, ws.Event{
		Type: ws.EventMessageRecalled,
		Data: map[string]interface{}{
			"roomId":     msg.RoomID,
			"messageId":  msg.ID,
			"recalledAt": msg.RecalledAt,
		},
	})
	return &msg, nil
}

// SearchMessages finds text messages in a room matching the keyword.
// Recalled messages never match.
func (s *Service) SearchMessages(ctx context.Context, roomID, userID, keyword string) ([]models.Message, error) {
	if _, err := s.GetRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}
	if keyword == "" {
		return nil, errs.Validationf("search keyword is required")
	}

	var messages []models.Message
	err := s.DB.WithContext(ctx).
		Where("room_id = ? AND kind = ? AND recalled = ? AND content LIKE ?",
			roomID, models.MessageKindText, false, "%"+keyword+"%").
		Order("sent_at DESC").Limit(50).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// DeliveryStats counts the caller's sent messages in a room by status.
func (s *Service) DeliveryStats(ctx context.Context, roomID, userID string) (map[string]int64, error) {
	if _, err := s.GetRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}

	stats := map[string]int64{}
	for _, status := range []models.MessageStatus{
		models.MessageStatusSent,
		models.MessageStatusDelivered,
		models.MessageStatusRead,
		models.MessageStatusFailed,
	} {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Message{}).
			Where("room_id = ? AND sender_id = ? AND status = ?", roomID, userID, status).
			Count(&count).Error; err != nil {
			return nil, err
		}
		stats[string(status)] = count
	}
	return stats, nil
}
