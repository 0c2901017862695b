package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"secondhand-market-server/internal/ws"
)

type fakeStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	sets   map[string][]string
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values: map[string]string{},
		ttls:   map[string]time.Duration{},
		sets:   map[string][]string{},
	}
}

func (f *fakeStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.values, key)
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.values[key]
	return ok, nil
}

func (f *fakeStore) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.sets[key] = append(f.sets[key], member)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Members(ctx context.Context, key string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sets[key], nil
}

type fakePublisher struct {
	events []struct {
		RoomID string
		Event  ws.Event
	}
}

func (f *fakePublisher) PublishToRoom(roomID string, ev ws.Event) {
	f.events = append(f.events, struct {
		RoomID string
		Event  ws.Event
	}{roomID, ev})
}

func TestSetOnlineBroadcastsToKnownRooms(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	pub := &fakePublisher{}
	tr := NewTracker(store, pub)
	ctx := context.Background()

	tr.TrackRoom(ctx, "user-1", "room-1")
	tr.TrackRoom(ctx, "user-1", "room-2")
	tr.SetOnline(ctx, "user-1")

	if !tr.IsOnline(ctx, "user-1") {
		t.Fatal("expected user to be online")
	}
	if store.ttls["chat:online:user-1"] != tr.OnlineTTL {
		t.Errorf("expected liveness TTL %v, got %v", tr.OnlineTTL, store.ttls["chat:online:user-1"])
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected a broadcast per known room, got %d events", len(pub.events))
	}
	for _, e := range pub.events {
		if e.Event.Type != ws.EventUserStatus {
			t.Errorf("expected user_status events, got %s", e.Event.Type)
		}
	}
}

func TestHeartbeatDoesNotBroadcast(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	pub := &fakePublisher{}
	tr := NewTracker(store, pub)
	ctx := context.Background()

	tr.TrackRoom(ctx, "user-1", "room-1")
	tr.Heartbeat(ctx, "user-1")

	if !tr.IsOnline(ctx, "user-1") {
		t.Error("heartbeat must arm the liveness fact")
	}
	if len(pub.events) != 0 {
		t.Errorf("heartbeat must not broadcast, got %d events", len(pub.events))
	}
}

func TestSetOfflineDeletesAndBroadcasts(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	pub := &fakePublisher{}
	tr := NewTracker(store, pub)
	ctx := context.Background()

	tr.TrackRoom(ctx, "user-1", "room-1")
	tr.SetOnline(ctx, "user-1")
	pub.events = nil

	tr.SetOffline(ctx, "user-1")

	if tr.IsOnline(ctx, "user-1") {
		t.Error("expected user to be offline after explicit disconnect")
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one offline broadcast, got %d", len(pub.events))
	}
	data, ok := pub.events[0].Event.Data.(map[string]interface{})
	if !ok || data["isOnline"] != false {
		t.Errorf("expected isOnline=false in broadcast, got %v", pub.events[0].Event.Data)
	}
}

func TestStoreErrorsDegradeToOffline(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = errors.New("store down")
	pub := &fakePublisher{}
	tr := NewTracker(store, pub)
	ctx := context.Background()

	if tr.IsOnline(ctx, "user-1") {
		t.Error("store errors must read as offline")
	}

	tr.SetOnline(ctx, "user-1")
	if len(pub.events) != 0 {
		t.Error("a failed liveness write must not broadcast")
	}

	if rooms := tr.Rooms(ctx, "user-1"); len(rooms) != 0 {
		t.Error("store errors must yield an empty room list")
	}
}
