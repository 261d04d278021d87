package models

import "time"

type PollStatus string

const (
	PollStatusActive   PollStatus = "active"
	PollStatusClosed   PollStatus = "closed" // legacy value: accepted on resolve, never written
	PollStatusResolved PollStatus = "resolved"
	PollStatusCanceled PollStatus = "canceled"
)

// Poll is one binary-outcome prediction market backed by a
// constant-product pool. ReserveA/ReserveB/InvariantK are only ever
// mutated by the market engine.
type Poll struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Authority string    `gorm:"type:text;not null;index"`
	Title     string    `gorm:"type:varchar(64);not null"`
	ClosesAt  time.Time `gorm:"type:timestamptz;not null"`

	OutcomeA string `gorm:"type:text;not null"`
	OutcomeB string `gorm:"type:text;not null"`

	ReserveA   uint64 `gorm:"type:numeric(20,0);not null"`
	ReserveB   uint64 `gorm:"type:numeric(20,0);not null"`
	InvariantK uint64 `gorm:"type:numeric(20,0);not null"`

	Status          PollStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	WinningOutcome  *string    `gorm:"type:text"`
	SettlementToken string     `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Poll) TableName() string {
	return "polls"
}

// Terminal reports whether the poll reached a state no lifecycle
// transition may leave.
func (p *Poll) Terminal() bool {
	return p.Status == PollStatusResolved || p.Status == PollStatusCanceled
}
