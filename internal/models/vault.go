package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vault is a custodial token balance. User stakes sit in per-user
// vaults, pool reserves in per-poll vaults, and collected fees in the
// operator fee vault. Transfers between vaults go through the ledger
// service, never through direct balance writes.
type Vault struct {
	ID      string          `gorm:"primaryKey;type:text"`
	Owner   string          `gorm:"type:text;not null;index"`
	Token   string          `gorm:"type:text;not null;index"`
	Balance decimal.Decimal `gorm:"type:numeric(30,0);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Vault) TableName() string {
	return "vaults"
}
