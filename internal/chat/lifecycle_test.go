package chat

import (
	"errors"
	"testing"

	"secondhand-market-server/internal/errs"
	"secondhand-market-server/internal/models"
)

func TestBuildMessageText(t *testing.T) {
	t.Parallel()

	msg, err := buildMessage("room-1", "user-1", SendMessageInput{
		Kind:    models.MessageKindText,
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Kind != models.MessageKindText || msg.Content != "hello" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.SenderID == nil || *msg.SenderID != "user-1" {
		t.Error("sender must be recorded")
	}
}

func TestBuildMessageRequiresContent(t *testing.T) {
	t.Parallel()

	duration := 3
	cases := []struct {
		name string
		in   SendMessageInput
	}{
		{"empty text", SendMessageInput{Kind: models.MessageKindText}},
		{"image without url", SendMessageInput{Kind: models.MessageKindImage}},
		{"voice without duration", SendMessageInput{Kind: models.MessageKindVoice, Content: "http://x/a.mp3"}},
		{"voice without url", SendMessageInput{Kind: models.MessageKindVoice, Duration: &duration}},
		{"product card without id", SendMessageInput{Kind: models.MessageKindProductCard}},
	}

	for _, tc := range cases {
		if _, err := buildMessage("room-1", "user-1", tc.in); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestBuildMessageRejectsReservedKinds(t *testing.T) {
	t.Parallel()

	reserved := []models.MessageKind{
		models.MessageKindSystem,
		models.MessageKindTransactionRequest,
		models.MessageKindTransactionResponse,
	}
	for _, kind := range reserved {
		if _, err := buildMessage("room-1", "user-1", SendMessageInput{Kind: kind, Content: "x"}); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("kind %s: expected validation error, got %v", kind, err)
		}
	}
}

func TestBuildMessageRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := buildMessage("room-1", "user-1", SendMessageInput{Kind: "STICKER"}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error for unknown kind, got %v", err)
	}
}

func TestBuildMessageVoice(t *testing.T) {
	t.Parallel()

	duration, size := 7, 2048
	msg, err := buildMessage("room-1", "user-1", SendMessageInput{
		Kind:     models.MessageKindVoice,
		Content:  "http://x/a.mp3",
		Duration: &duration,
		FileSize: &size,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.FileURL != "http://x/a.mp3" || msg.Duration == nil || *msg.Duration != 7 {
		t.Errorf("voice metadata not carried over: %+v", msg)
	}
}
