package models

import (
	"testing"
	"time"
)

func TestCanRecallWithinWindow(t *testing.T) {
	t.Parallel()

	sent := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	msg := NewTextMessage("room-1", "user-1", "hello")
	msg.SentAt = sent

	if !msg.CanRecall(sent.Add(30 * time.Second)) {
		t.Error("expected recall to be allowed 30s after sending")
	}
	if !msg.CanRecall(sent.Add(RecallWindow)) {
		t.Error("expected recall to be allowed exactly at the window boundary")
	}
	if msg.CanRecall(sent.Add(RecallWindow + time.Second)) {
		t.Error("expected recall to be denied after the window")
	}
}

func TestCanRecallDeniedForSystemAndRecalled(t *testing.T) {
	t.Parallel()

	now := time.Now()

	sys := NewSystemMessage("room-1", SystemTransactionAgreed, "agreed", "")
	if sys.CanRecall(now) {
		t.Error("system messages must never be recallable")
	}

	msg := NewTextMessage("room-1", "user-1", "hello")
	msg.Recall(now)
	if msg.CanRecall(now) {
		t.Error("an already recalled message must not be recallable again")
	}
}

func TestRecallReplacesContent(t *testing.T) {
	t.Parallel()

	now := time.Now()
	msg := NewTextMessage("room-1", "user-1", "secret")
	msg.Recall(now)

	if !msg.Recalled {
		t.Error("expected Recalled to be set")
	}
	if msg.Content != RecalledPlaceholder {
		t.Errorf("expected content %q, got %q", RecalledPlaceholder, msg.Content)
	}
	if msg.RecalledAt == nil || !msg.RecalledAt.Equal(now) {
		t.Error("expected RecalledAt to be stamped")
	}
	if msg.DisplayContent() != RecalledPlaceholder {
		t.Errorf("recalled message must preview as placeholder, got %q", msg.DisplayContent())
	}
}

func TestSentBy(t *testing.T) {
	t.Parallel()

	msg := NewTextMessage("room-1", "user-1", "hello")
	if !msg.SentBy("user-1") {
		t.Error("expected sender match")
	}
	if msg.SentBy("user-2") {
		t.Error("expected non-sender mismatch")
	}

	sys := NewSystemMessage("room-1", SystemProductSold, "sold", "")
	if sys.SentBy("user-1") {
		t.Error("system messages have no sender")
	}
}

func TestMarkDeliveredTransitions(t *testing.T) {
	t.Parallel()

	now := time.Now()
	msg := NewTextMessage("room-1", "user-1", "hello")

	if !msg.MarkDelivered(now) {
		t.Fatal("expected SENT -> DELIVERED to succeed")
	}
	if msg.Status != MessageStatusDelivered {
		t.Errorf("expected status DELIVERED, got %s", msg.Status)
	}
	if msg.MarkDelivered(now) {
		t.Error("expected repeated delivery mark to be a no-op")
	}

	if !msg.MarkRead(now) {
		t.Fatal("expected DELIVERED -> READ to succeed")
	}
	if msg.MarkDelivered(now) {
		t.Error("READ messages must not regress to DELIVERED")
	}
	if msg.MarkRead(now) {
		t.Error("expected repeated read mark to be a no-op")
	}
}

func TestMarkReadFromSent(t *testing.T) {
	t.Parallel()

	msg := NewTextMessage("room-1", "user-1", "hello")
	if !msg.MarkRead(time.Now()) {
		t.Error("expected SENT -> READ to be allowed, skipping DELIVERED")
	}
}

func TestDisplayContentByKind(t *testing.T) {
	t.Parallel()

	width, height, size, duration := 640, 480, 1024, 3

	cases := []struct {
		name string
		msg  Message
		want string
	}{
		{"text", NewTextMessage("r", "u", "hello"), "hello"},
		{"image", NewImageMessage("r", "u", "http://x/a.jpg", "", &width, &height, &size), "[image]"},
		{"voice", NewVoiceMessage("r", "u", "http://x/a.mp3", &duration, &size), "[voice]"},
		{"system", NewSystemMessage("r", SystemProductSold, "item sold", ""), "item sold"},
		{"product card", NewProductCardMessage("r", "u", "p-1", "check this out", "{}"), "[product card]"},
	}

	for _, tc := range cases {
		if got := tc.msg.DisplayContent(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
