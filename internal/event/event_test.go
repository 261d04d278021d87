package event

import (
	"context"
	"testing"
	"time"

	"pollmarket/internal/models"
)

type captureSink struct {
	events []Event
}

func (s *captureSink) Emit(_ context.Context, ev Event) {
	s.events = append(s.events, ev)
}

func TestMultiSink_FanOut(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{}
	sink := MultiSink{a, nil, b}

	sink.Emit(context.Background(), Event{Type: TypePollCreated, PollID: "p1"})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("fan-out missed a sink: a=%d b=%d", len(a.events), len(b.events))
	}
	if a.events[0].Type != TypePollCreated || a.events[0].PollID != "p1" {
		t.Fatalf("unexpected event: %+v", a.events[0])
	}
}

func TestPollResolvedPayload(t *testing.T) {
	winner := "outcome-a"
	poll := &models.Poll{
		ID:             "p1",
		Status:         models.PollStatusResolved,
		WinningOutcome: &winner,
	}
	ev := PollResolved(poll, "admin")
	if ev.Type != TypePollResolved || ev.PollID != "p1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Payload["winning_outcome"] != "outcome-a" {
		t.Fatalf("payload = %+v", ev.Payload)
	}
	if ev.At.IsZero() || time.Since(ev.At) > time.Minute {
		t.Fatalf("timestamp not set: %v", ev.At)
	}
}

func TestWinningsClaimedPayload(t *testing.T) {
	ev := WinningsClaimed(&models.Poll{ID: "p1"}, "alice", 91)
	if ev.Payload["user"] != "alice" {
		t.Fatalf("payload = %+v", ev.Payload)
	}
	if ev.Payload["amount"] != uint64(91) {
		t.Fatalf("payload amount = %v", ev.Payload["amount"])
	}
}
