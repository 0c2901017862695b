package ws

import (
	"testing"
)

func addTestClient(h *Hub, userID string) *Client {
	c := newClient(userID, nil)
	h.register(c)
	return c
}

func drain(c *Client) []Event {
	var events []Event
	for {
		select {
		case ev := <-c.Send:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestPublishToRoomTargetsSubscribers(t *testing.T) {
	t.Parallel()

	h := NewHub()
	inRoom := addTestClient(h, "user-1")
	outOfRoom := addTestClient(h, "user-2")
	h.Subscribe(inRoom, "room-1")

	h.PublishToRoom("room-1", Event{Type: EventMessage, Data: "hi"})

	if got := drain(inRoom); len(got) != 1 || got[0].Type != EventMessage {
		t.Errorf("expected one message event for the subscriber, got %v", got)
	}
	if got := drain(outOfRoom); len(got) != 0 {
		t.Errorf("expected no events for non-subscribers, got %v", got)
	}
}

func TestPublishToUserReachesAllConnections(t *testing.T) {
	t.Parallel()

	h := NewHub()
	phone := addTestClient(h, "user-1")
	laptop := addTestClient(h, "user-1")
	other := addTestClient(h, "user-2")

	h.PublishToUser("user-1", Event{Type: EventNotification})

	if len(drain(phone)) != 1 || len(drain(laptop)) != 1 {
		t.Error("every connection of the user must receive the event")
	}
	if len(drain(other)) != 0 {
		t.Error("other users must not receive the event")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	h := NewHub()
	c := addTestClient(h, "user-1")
	h.Subscribe(c, "room-1")
	h.Unsubscribe(c, "room-1")

	h.PublishToRoom("room-1", Event{Type: EventMessage})

	if len(drain(c)) != 0 {
		t.Error("unsubscribed clients must not receive room events")
	}
}

func TestRemoveClientDropsAllSubscriptions(t *testing.T) {
	t.Parallel()

	h := NewHub()
	c := addTestClient(h, "user-1")
	h.Subscribe(c, "room-1")
	h.Subscribe(c, "room-2")

	h.RemoveClient(c)

	h.PublishToRoom("room-1", Event{Type: EventMessage})
	h.PublishToRoom("room-2", Event{Type: EventMessage})
	h.PublishToUser("user-1", Event{Type: EventNotification})

	if len(drain(c)) != 0 {
		t.Error("removed clients must not receive any events")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	h := NewHub()
	c := addTestClient(h, "user-1")
	h.Subscribe(c, "room-1")

	// Fill the send buffer; the hub must not block once it is full.
	for i := 0; i < cap(c.Send)+10; i++ {
		h.PublishToRoom("room-1", Event{Type: EventMessage, Data: i})
	}

	if got := len(drain(c)); got != cap(c.Send) {
		t.Errorf("expected exactly %d buffered events, got %d", cap(c.Send), got)
	}
}
