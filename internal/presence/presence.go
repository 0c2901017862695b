// Package presence maintains short-lived "user is connected" facts in a
// shared expiring key store, so every server instance sees the same
// (eventually-expiring) view. Presence is advisory: a stale entry that
// has not yet expired is an acceptable false positive, and store errors
// degrade to "offline" instead of failing the caller.
package presence

import (
	"context"
	"log"
	"time"

	"secondhand-market-server/internal/ws"
)

const (
	onlineKeyPrefix    = "chat:online:"
	userRoomsKeyPrefix = "chat:user_rooms:"
)

// Store is the minimal expiring key/value surface the tracker needs.
// RedisStore is the production implementation.
type Store interface {
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	AddToSet(ctx context.Context, key, member string, ttl time.Duration) error
	Members(ctx context.Context, key string) ([]string, error)
}

// Publisher receives presence change events for fan-out. *ws.Hub
// satisfies it.
type Publisher interface {
	PublishToRoom(roomID string, ev ws.Event)
}

// Tracker owns the liveness facts and the per-user room-membership
// index. Entries are keyed per user/room and updates are idempotent
// set/delete operations, so no locking is needed.
type Tracker struct {
	store Store
	pub   Publisher

	// OnlineTTL bounds how long a liveness fact survives without a
	// heartbeat. MembershipTTL bounds the room-membership index.
	OnlineTTL     time.Duration
	MembershipTTL time.Duration
}

// NewTracker creates a tracker with the default TTLs (30m liveness,
// 24h membership).
func NewTracker(store Store, pub Publisher) *Tracker {
	return &Tracker{
		store:         store,
		pub:           pub,
		OnlineTTL:     30 * time.Minute,
		MembershipTTL: 24 * time.Hour,
	}
}

// SetOnline writes the liveness fact and broadcasts the state change to
// every room the user is known to participate in.
func (t *Tracker) SetOnline(ctx context.Context, userID string) {
	if err := t.store.SetWithTTL(ctx, onlineKeyPrefix+userID, "online", t.OnlineTTL); err != nil {
		log.Printf("presence: set online for user %s failed: %v", userID, err)
		return
	}
	t.broadcastStatus(ctx, userID, true)
}

// Heartbeat re-arms the liveness TTL without broadcasting.
func (t *Tracker) Heartbeat(ctx context.Context, userID string) {
	if err := t.store.SetWithTTL(ctx, onlineKeyPrefix+userID, "online", t.OnlineTTL); err != nil {
		log.Printf("presence: heartbeat for user %s failed: %v", userID, err)
	}
}

// SetOffline deletes the liveness fact immediately (explicit disconnect)
// and broadcasts the state change. Crashed connections expire naturally.
func (t *Tracker) SetOffline(ctx context.Context, userID string) {
	if err := t.store.Delete(ctx, onlineKeyPrefix+userID); err != nil {
		log.Printf("presence: set offline for user %s failed: %v", userID, err)
		return
	}
	t.broadcastStatus(ctx, userID, false)
}

// IsOnline reports whether the liveness fact currently exists. Store
// errors count as offline.
func (t *Tracker) IsOnline(ctx context.Context, userID string) bool {
	ok, err := t.store.Exists(ctx, onlineKeyPrefix+userID)
	if err != nil {
		log.Printf("presence: online check for user %s failed: %v", userID, err)
		return false
	}
	return ok
}

// TrackRoom records that the user participates in the room, feeding the
// membership index used for presence broadcasts.
func (t *Tracker) TrackRoom(ctx context.Context, userID, roomID string) {
	if err := t.store.AddToSet(ctx, userRoomsKeyPrefix+userID, roomID, t.MembershipTTL); err != nil {
		log.Printf("presence: track room %s for user %s failed: %v", roomID, userID, err)
	}
}

// Rooms returns the rooms the user is known to participate in. Store
// errors yield an empty list.
func (t *Tracker) Rooms(ctx context.Context, userID string) []string {
	rooms, err := t.store.Members(ctx, userRoomsKeyPrefix+userID)
	if err != nil {
		log.Printf("presence: room lookup for user %s failed: %v", userID, err)
		return nil
	}
	return rooms
}

func (t *Tracker) broadcastStatus(ctx context.Context, userID string, online bool) {
	ev := ws.Event{
		Type: ws.EventUserStatus,
		Data: map[string]interface{}{
			"userId":    userID,
			"isOnline":  online,
			"timestamp": time.Now(),
		},
	}
	for _, roomID := range t.Rooms(ctx, userID) {
		t.pub.PublishToRoom(roomID, ev)
	}
}
