package models

import (
	"time"

	"gorm.io/datatypes"
)

// MarketEvent is an outbox row for off-chain observers. Emission is
// fire-and-forget: a failed insert never fails the operation that
// produced the event.
type MarketEvent struct {
	ID      uint64         `gorm:"primaryKey;autoIncrement"`
	Type    string         `gorm:"type:varchar(40);not null;index"`
	PollID  string         `gorm:"type:text;not null;index"`
	Payload datatypes.JSON `gorm:"type:jsonb;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (MarketEvent) TableName() string {
	return "market_events"
}
