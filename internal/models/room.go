package models

import (
	"time"
)

// RoomStatus represents the status of a chat room
type RoomStatus string

const (
	RoomStatusActive  RoomStatus = "ACTIVE"
	RoomStatusClosed  RoomStatus = "CLOSED"
	RoomStatusBlocked RoomStatus = "BLOCKED"
)

// Room represents the unique conversation channel between two users.
// Participants are stored in slots A and B ordered by the canonical pair
// key, which carries no buyer/seller meaning. The unique index on PairKey
// is what guarantees at most one room per pair under concurrent creation.
type Room struct {
	BaseModel
	PairKey string     `gorm:"uniqueIndex;size:80;not null" json:"-"`
	UserAID string     `gorm:"size:36;index" json:"userAId"`
	UserBID string     `gorm:"size:36;index" json:"userBId"`
	Status  RoomStatus `gorm:"size:20;default:'ACTIVE'" json:"status"`

	// Denormalized last-message snapshot
	LastMessageID       string      `gorm:"size:36" json:"lastMessageId,omitempty"`
	LastMessagePreview  string      `gorm:"size:255" json:"lastMessagePreview,omitempty"`
	LastMessageKind     MessageKind `gorm:"size:30" json:"lastMessageKind,omitempty"`
	LastMessageSenderID string      `gorm:"size:36" json:"lastMessageSenderId,omitempty"`
	LastMessageAt       *time.Time  `json:"lastMessageAt,omitempty"`

	UserAUnread   int `gorm:"default:0" json:"-"`
	UserBUnread   int `gorm:"default:0" json:"-"`
	TotalMessages int `gorm:"default:0" json:"totalMessages"`

	UserAPinned bool `gorm:"default:false" json:"-"`
	UserBPinned bool `gorm:"default:false" json:"-"`
	UserAMuted  bool `gorm:"default:false" json:"-"`
	UserBMuted  bool `gorm:"default:false" json:"-"`

	// Relations
	UserA User `gorm:"foreignKey:UserAID" json:"-"`
	UserB User `gorm:"foreignKey:UserBID" json:"-"`
}

// PairKey builds the order-independent key identifying the conversation
// between two users. Both argument orders produce the same key.
func PairKey(userID1, userID2 string) string {
	if userID1 < userID2 {
		return userID1 + ":" + userID2
	}
	return userID2 + ":" + userID1
}

// NewRoom creates a room for the given pair, assigning the participant
// slots in canonical order.
func NewRoom(userID1, userID2 string) Room {
	a, b := userID1, userID2
	if b < a {
		a, b = b, a
	}
	return Room{
		PairKey: PairKey(a, b),
		UserAID: a,
		UserBID: b,
		Status:  RoomStatusActive,
	}
}

// IsParticipant reports whether the given user belongs to this room.
func (r *Room) IsParticipant(userID string) bool {
	return userID == r.UserAID || userID == r.UserBID
}

// OtherParticipant returns the peer of the given user, or "" if the user
// is not a participant.
func (r *Room) OtherParticipant(userID string) string {
	switch userID {
	case r.UserAID:
		return r.UserBID
	case r.UserBID:
		return r.UserAID
	}
	return ""
}

// UnreadFor returns the unread counter of the given participant.
func (r *Room) UnreadFor(userID string) int {
	switch userID {
	case r.UserAID:
		return r.UserAUnread
	case r.UserBID:
		return r.UserBUnread
	}
	return 0
}

// IsPinned reports whether the given participant pinned the room.
func (r *Room) IsPinned(userID string) bool {
	switch userID {
	case r.UserAID:
		return r.UserAPinned
	case r.UserBID:
		return r.UserBPinned
	}
	return false
}

// IsMuted reports whether the given participant muted the room.
func (r *Room) IsMuted(userID string) bool {
	switch userID {
	case r.UserAID:
		return r.UserAMuted
	case r.UserBID:
		return r.UserBMuted
	}
	return false
}

// SetPinned updates the pinned flag of the given participant.
func (r *Room) SetPinned(userID string, pinned bool) {
	switch userID {
	case r.UserAID:
		r.UserAPinned = pinned
	case r.UserBID:
		r.UserBPinned = pinned
	}
}

// SetMuted updates the muted flag of the given participant.
func (r *Room) SetMuted(userID string, muted bool) {
	switch userID {
	case r.UserAID:
		r.UserAMuted = muted
	case r.UserBID:
		r.UserBMuted = muted
	}
}

// UnreadColumn returns the counter column belonging to the given
// participant, for targeted SQL updates.
func (r *Room) UnreadColumn(userID string) string {
	switch userID {
	case r.UserAID:
		return "user_a_unread"
	case r.UserBID:
		return "user_b_unread"
	}
	return ""
}
