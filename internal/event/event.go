// Package event carries fire-and-forget notifications for off-chain
// observers. Sinks must never fail the operation that produced the
// event; they log and move on.
package event

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pollmarket/internal/models"
)

const (
	TypePollCreated     = "poll_created"
	TypePollResolved    = "poll_resolved"
	TypePollCanceled    = "poll_canceled"
	TypeWinningsClaimed = "winnings_claimed"
)

type Event struct {
	Type    string         `json:"type"`
	PollID  string         `json:"poll_id"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Sink interface {
	Emit(ctx context.Context, ev Event)
}

func PollCreated(poll *models.Poll) Event {
	return Event{
		Type:   TypePollCreated,
		PollID: poll.ID,
		At:     time.Now().UTC(),
		Payload: map[string]any{
			"authority": poll.Authority,
			"outcome_a": poll.OutcomeA,
			"outcome_b": poll.OutcomeB,
			"closes_at": poll.ClosesAt,
		},
	}
}

func PollResolved(poll *models.Poll, caller string) Event {
	payload := map[string]any{"authority": caller}
	if poll.WinningOutcome != nil {
		payload["winning_outcome"] = *poll.WinningOutcome
	}
	return Event{
		Type:    TypePollResolved,
		PollID:  poll.ID,
		At:      time.Now().UTC(),
		Payload: payload,
	}
}

func PollCanceled(poll *models.Poll, caller string) Event {
	return Event{
		Type:    TypePollCanceled,
		PollID:  poll.ID,
		At:      time.Now().UTC(),
		Payload: map[string]any{"authority": caller},
	}
}

func WinningsClaimed(poll *models.Poll, user string, amount uint64) Event {
	return Event{
		Type:   TypeWinningsClaimed,
		PollID: poll.ID,
		At:     time.Now().UTC(),
		Payload: map[string]any{
			"user":   user,
			"amount": amount,
		},
	}
}

// MultiSink fans one event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}

// ZapSink writes events to the service log.
type ZapSink struct {
	Logger *zap.Logger
}

func (s *ZapSink) Emit(_ context.Context, ev Event) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Info("market event",
		zap.String("type", ev.Type),
		zap.String("poll_id", ev.PollID),
		zap.Any("payload", ev.Payload),
	)
}

// OutboxSink persists events to the market_events table for indexers
// that poll the database.
type OutboxSink struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func (s *OutboxSink) Emit(ctx context.Context, ev Event) {
	if s == nil || s.DB == nil {
		return
	}
	raw, err := json.Marshal(ev.Payload)
	if err != nil {
		raw = []byte("{}")
	}
	row := models.MarketEvent{
		Type:    ev.Type,
		PollID:  ev.PollID,
		Payload: datatypes.JSON(raw),
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil && s.Logger != nil {
		s.Logger.Warn("event outbox insert failed",
			zap.String("type", ev.Type),
			zap.String("poll_id", ev.PollID),
			zap.Error(err),
		)
	}
}
