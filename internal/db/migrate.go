package db

import (
	"pollmarket/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil {
		return nil
	}
	return db.Gorm.AutoMigrate(
		&models.Poll{},
		&models.VoteRecord{},
		&models.Vault{},
		&models.MarketEvent{},
	)
}
