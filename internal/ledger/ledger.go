// Package ledger implements the custodial token-transfer capability
// the market engine depends on. Balances live in the vaults table and
// move only inside the caller's database transaction, so a transfer
// either lands with the rest of the operation or not at all.
package ledger

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pollmarket/internal/models"
)

var (
	ErrUnknownVault        = errors.New("unknown vault")
	ErrInvalidTokenMint    = errors.New("invalid token mint")
	ErrInvalidTokenOwner   = errors.New("invalid token owner")
	ErrInsufficientBalance = errors.New("insufficient vault balance")
)

// poolAuthorityTag is the fixed derivation tag for poll-scoped signing
// identities. Only the ledger derives them, so nothing else can mint
// an identity that owns a pool vault.
const poolAuthorityTag = "pool-authority"

func PoolAuthority(pollID string) string {
	return poolAuthorityTag + ":" + pollID
}

func PoolVaultID(pollID string) string {
	return "pool:" + pollID
}

func UserVaultID(user, token string) string {
	return "user:" + user + ":" + token
}

func FeeVaultID(token string) string {
	return "fees:" + token
}

type Service struct {
	Logger *zap.Logger
}

// EnsureVault creates the vault with a zero balance if it does not
// exist yet. Owner and token are fixed at creation.
func (s *Service) EnsureVault(tx *gorm.DB, id, owner, token string) error {
	vault := models.Vault{
		ID:      id,
		Owner:   owner,
		Token:   token,
		Balance: decimal.Zero,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vault).Error
}

// Deposit credits amount to the vault, creating it first if needed.
func (s *Service) Deposit(tx *gorm.DB, id, owner, token string, amount uint64) error {
	if err := s.EnsureVault(tx, id, owner, token); err != nil {
		return err
	}
	return tx.Model(&models.Vault{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", decimal.NewFromUint64(amount))).Error
}

// Transfer moves amount from one vault to another on behalf of
// authorizer. The source vault's owner must be the authorizer and both
// vaults must hold the same token; violations surface as the typed
// errors above and nothing moves.
func (s *Service) Transfer(tx *gorm.DB, fromID, toID, authorizer string, amount uint64) error {
	if fromID == toID {
		return ErrInvalidTokenOwner
	}
	// Rows are locked in ID order so concurrent transfers over the
	// same pair cannot deadlock.
	ids := []string{fromID, toID}
	sort.Strings(ids)

	var rows []models.Vault
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return err
	}
	var from, to *models.Vault
	for i := range rows {
		switch rows[i].ID {
		case fromID:
			from = &rows[i]
		case toID:
			to = &rows[i]
		}
	}
	if from == nil || to == nil {
		return ErrUnknownVault
	}
	if err := validateTransfer(from, to, authorizer); err != nil {
		return err
	}

	amt := decimal.NewFromUint64(amount)
	if from.Balance.LessThan(amt) {
		return ErrInsufficientBalance
	}
	if err := tx.Model(&models.Vault{}).
		Where("id = ?", fromID).
		Update("balance", from.Balance.Sub(amt)).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Vault{}).
		Where("id = ?", toID).
		Update("balance", to.Balance.Add(amt)).Error; err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Debug("vault transfer",
			zap.String("from", fromID),
			zap.String("to", toID),
			zap.String("authorizer", authorizer),
			zap.Uint64("amount", amount),
		)
	}
	return nil
}

func validateTransfer(from, to *models.Vault, authorizer string) error {
	if from.Token != to.Token {
		return ErrInvalidTokenMint
	}
	if from.Owner != authorizer {
		return ErrInvalidTokenOwner
	}
	return nil
}
