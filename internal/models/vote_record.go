package models

import "time"

// VoteRecord is one user's stake on one poll outcome. Created once per
// vote; the only later mutation is Claimed flipping to true.
type VoteRecord struct {
	ID     string `gorm:"primaryKey;type:text"`
	PollID string `gorm:"type:text;not null;index"`
	UserID string `gorm:"type:text;not null;index"`

	// ChosenOutcome is the backed outcome's identifier, equal to the
	// poll's OutcomeA or OutcomeB at stake time.
	ChosenOutcome string `gorm:"type:text;not null"`

	SharesReceived uint64 `gorm:"type:numeric(20,0);not null"`
	StakeValue     uint64 `gorm:"type:numeric(20,0);not null"`
	PriceAtStake   uint64 `gorm:"type:numeric(20,0);not null"`

	Claimed bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (VoteRecord) TableName() string {
	return "vote_records"
}
