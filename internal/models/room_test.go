package models

import "testing"

func TestPairKeyOrderIndependent(t *testing.T) {
	t.Parallel()

	if PairKey("alice", "bob") != PairKey("bob", "alice") {
		t.Error("pair key must not depend on argument order")
	}
	if PairKey("alice", "bob") != "alice:bob" {
		t.Errorf("expected canonical key alice:bob, got %q", PairKey("alice", "bob"))
	}
}

func TestNewRoomCanonicalSlots(t *testing.T) {
	t.Parallel()

	r1 := NewRoom("zed", "amy")
	r2 := NewRoom("amy", "zed")

	if r1.PairKey != r2.PairKey {
		t.Error("rooms for the same pair must share a pair key")
	}
	if r1.UserAID != "amy" || r1.UserBID != "zed" {
		t.Errorf("expected canonical slot order (amy, zed), got (%s, %s)", r1.UserAID, r1.UserBID)
	}
	if r1.Status != RoomStatusActive {
		t.Errorf("new rooms must start ACTIVE, got %s", r1.Status)
	}
}

func TestRoomParticipants(t *testing.T) {
	t.Parallel()

	r := NewRoom("amy", "zed")

	if !r.IsParticipant("amy") || !r.IsParticipant("zed") {
		t.Error("both users must be participants")
	}
	if r.IsParticipant("eve") {
		t.Error("strangers must not be participants")
	}
	if got := r.OtherParticipant("amy"); got != "zed" {
		t.Errorf("expected peer zed, got %q", got)
	}
	if got := r.OtherParticipant("eve"); got != "" {
		t.Errorf("expected empty peer for a stranger, got %q", got)
	}
}

func TestRoomPerUserCounters(t *testing.T) {
	t.Parallel()

	r := NewRoom("amy", "zed")
	r.UserAUnread = 3
	r.UserBUnread = 7

	if r.UnreadFor("amy") != 3 || r.UnreadFor("zed") != 7 {
		t.Error("unread counters must resolve per participant slot")
	}
	if r.UnreadFor("eve") != 0 {
		t.Error("strangers have no unread counter")
	}

	if r.UnreadColumn("amy") != "user_a_unread" || r.UnreadColumn("zed") != "user_b_unread" {
		t.Error("unread columns must resolve per participant slot")
	}
	if r.UnreadColumn("eve") != "" {
		t.Error("strangers have no unread column")
	}
}

func TestRoomPinMuteFlags(t *testing.T) {
	t.Parallel()

	r := NewRoom("amy", "zed")

	r.SetPinned("amy", true)
	r.SetMuted("zed", true)

	if !r.IsPinned("amy") || r.IsPinned("zed") {
		t.Error("pin flag must be per participant")
	}
	if !r.IsMuted("zed") || r.IsMuted("amy") {
		t.Error("mute flag must be per participant")
	}
}
