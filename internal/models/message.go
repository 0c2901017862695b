package models

import (
	"time"
)

// MessageKind is the closed set of message variants. Every consumption
// site (preview rendering, recall eligibility, lifecycle transitions)
// switches over it exhaustively.
type MessageKind string

const (
	MessageKindText                MessageKind = "TEXT"
	MessageKindImage               MessageKind = "IMAGE"
	MessageKindVoice               MessageKind = "VOICE"
	MessageKindSystem              MessageKind = "SYSTEM"
	MessageKindProductCard         MessageKind = "PRODUCT_CARD"
	MessageKindTransactionRequest  MessageKind = "TRANSACTION_REQUEST"
	MessageKindTransactionResponse MessageKind = "TRANSACTION_RESPONSE"
)

// MessageStatus represents the delivery status of a message
type MessageStatus string

const (
	MessageStatusSending   MessageStatus = "SENDING"
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusRead      MessageStatus = "READ"
	MessageStatusFailed    MessageStatus = "FAILED"
)

// SystemMessageType classifies system-generated messages
type SystemMessageType string

const (
	SystemTransactionAgreed    SystemMessageType = "TRANSACTION_AGREED"
	SystemTransactionCompleted SystemMessageType = "TRANSACTION_COMPLETED"
	SystemTransactionCancelled SystemMessageType = "TRANSACTION_CANCELLED"
	SystemProductSold          SystemMessageType = "PRODUCT_SOLD"
)

// RecallWindow is how long after sending a sender may retract a message.
const RecallWindow = 2 * time.Minute

// RecalledPlaceholder irreversibly replaces the content of a recalled message.
const RecalledPlaceholder = "[message recalled]"

// Message represents a single message inside a room. SenderID is nil for
// system-generated messages.
type Message struct {
	BaseModel
	RoomID   string      `gorm:"size:36;index;not null" json:"roomId"`
	SenderID *string     `gorm:"size:36;index" json:"senderId,omitempty"`
	Kind     MessageKind `gorm:"size:30;not null" json:"kind"`
	Content  string      `gorm:"type:text" json:"content"`

	// File metadata (image/voice)
	FileURL      string `gorm:"size:255" json:"fileUrl,omitempty"`
	ThumbnailURL string `gorm:"size:255" json:"thumbnailUrl,omitempty"`
	FileSize     *int   `json:"fileSize,omitempty"`
	Duration     *int   `json:"duration,omitempty"` // voice length in seconds
	ImageWidth   *int   `json:"imageWidth,omitempty"`
	ImageHeight  *int   `json:"imageHeight,omitempty"`

	// System message payload
	SystemType SystemMessageType `gorm:"size:40" json:"systemType,omitempty"`
	SystemData string            `gorm:"type:json" json:"systemData,omitempty"`

	// Product / transaction links
	ProductID       *string `gorm:"size:36;index" json:"productId,omitempty"`
	ProductSnapshot string  `gorm:"type:json" json:"productSnapshot,omitempty"`
	TransactionID   *string `gorm:"size:36;index" json:"transactionId,omitempty"`

	Status MessageStatus `gorm:"size:20;default:'SENT'" json:"status"`

	Recalled   bool       `gorm:"default:false" json:"recalled"`
	RecalledAt *time.Time `json:"recalledAt,omitempty"`

	SentAt      time.Time  `json:"sentAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`

	// Relations
	Room   Room  `gorm:"foreignKey:RoomID" json:"-"`
	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// NewTextMessage creates a plain text message from a user.
func NewTextMessage(roomID, senderID, content string) Message {
	return Message{
		RoomID:   roomID,
		SenderID: &senderID,
		Kind:     MessageKindText,
		Content:  content,
		Status:   MessageStatusSent,
		SentAt:   time.Now(),
	}
}

// NewImageMessage creates an image message with its file metadata.
func NewImageMessage(roomID, senderID, fileURL, thumbnailURL string, width, height, fileSize *int) Message {
	return Message{
		RoomID:       roomID,
		SenderID:     &senderID,
		Kind:         MessageKindImage,
		Content:      fileURL,
		FileURL:      fileURL,
		ThumbnailURL: thumbnailURL,
		ImageWidth:   width,
		ImageHeight:  height,
		FileSize:     fileSize,
		Status:       MessageStatusSent,
		SentAt:       time.Now(),
	}
}

// NewVoiceMessage creates a voice message with its duration.
func NewVoiceMessage(roomID, senderID, fileURL string, duration, fileSize *int) Message {
	return Message{
		RoomID:   roomID,
		SenderID: &senderID,
		Kind:     MessageKindVoice,
		Content:  fileURL,
		FileURL:  fileURL,
		Duration: duration,
		FileSize: fileSize,
		Status:   MessageStatusSent,
		SentAt:   time.Now(),
	}
}

// NewSystemMessage creates a message with no sender.
func NewSystemMessage(roomID string, systemType SystemMessageType, content, systemData string) Message {
	return Message{
		RoomID:     roomID,
		Kind:       MessageKindSystem,
		Content:    content,
		SystemType: systemType,
		SystemData: systemData,
		Status:     MessageStatusSent,
		SentAt:     time.Now(),
	}
}

// NewProductCardMessage creates a product card referencing a listing.
func NewProductCardMessage(roomID, senderID, productID, content, snapshot string) Message {
	return Message{
		RoomID:          roomID,
		SenderID:        &senderID,
		Kind:            MessageKindProductCard,
		Content:         content,
		ProductID:       &productID,
		ProductSnapshot: snapshot,
		Status:          MessageStatusSent,
		SentAt:          time.Now(),
	}
}

// IsSystem reports whether this is a system-generated message.
func (m *Message) IsSystem() bool {
	return m.Kind == MessageKindSystem
}

// SentBy reports whether the given user is the original sender.
func (m *Message) SentBy(userID string) bool {
	return m.SenderID != nil && *m.SenderID == userID
}

// CanRecall reports whether the message may still be retracted at the
// given instant: not yet recalled, not a system message, and sent no
// longer than RecallWindow ago (the boundary instant is still allowed).
func (m *Message) CanRecall(now time.Time) bool {
	return !m.Recalled &&
		m.Kind != MessageKindSystem &&
		!now.After(m.SentAt.Add(RecallWindow))
}

// Recall irreversibly replaces the content with the placeholder and
// stamps the recall time. Callers must check CanRecall first.
func (m *Message) Recall(now time.Time) {
	m.Recalled = true
	m.RecalledAt = &now
	m.Content = RecalledPlaceholder
}

// MarkDelivered advances SENT to DELIVERED. It reports whether the state
// changed; DELIVERED and READ messages are left untouched.
func (m *Message) MarkDelivered(now time.Time) bool {
	if m.Status != MessageStatusSent {
		return false
	}
	m.Status = MessageStatusDelivered
	m.DeliveredAt = &now
	return true
}

// MarkRead advances SENT or DELIVERED to READ. It reports whether the
// state changed.
func (m *Message) MarkRead(now time.Time) bool {
	if m.Status != MessageStatusSent && m.Status != MessageStatusDelivered {
		return false
	}
	m.Status = MessageStatusRead
	m.ReadAt = &now
	return true
}

// DisplayContent renders the message for list previews. A recalled
// message always renders as the placeholder regardless of stored
// content; binary kinds render as fixed tokens.
func (m *Message) DisplayContent() string {
	if m.Recalled {
		return RecalledPlaceholder
	}
	switch m.Kind {
	case MessageKindText, MessageKindSystem:
		return m.Content
	case MessageKindImage:
		return "[image]"
	case MessageKindVoice:
		return "[voice]"
	case MessageKindProductCard:
		return "[product card]"
	case MessageKindTransactionRequest:
		return "[transaction request]"
	case MessageKindTransactionResponse:
		return "[transaction response]"
	}
	return m.Content
}
