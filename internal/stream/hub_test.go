package stream

import (
	"context"
	"encoding/json"
	"testing"

	"pollmarket/internal/event"
)

func TestHub_BroadcastAndDrop(t *testing.T) {
	hub := NewHub(nil)
	fast := &subscriber{ch: make(chan []byte, 4)}
	full := &subscriber{ch: make(chan []byte)} // zero buffer: always behind
	hub.add(fast)
	hub.add(full)
	defer hub.remove(fast)
	defer hub.remove(full)

	hub.Emit(context.Background(), event.Event{Type: event.TypePollCreated, PollID: "p1"})

	select {
	case raw := <-fast.ch:
		var ev event.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Type != event.TypePollCreated || ev.PollID != "p1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatalf("fast subscriber received nothing")
	}

	select {
	case <-full.ch:
		t.Fatalf("blocked subscriber should have been skipped")
	default:
	}

	if hub.Subscribers() != 2 {
		t.Fatalf("subscribers = %d, want 2", hub.Subscribers())
	}
}
