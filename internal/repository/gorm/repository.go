package gormrepository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pollmarket/internal/models"
	"pollmarket/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Polls ------------------------------------------------------------------

func (s *Store) CreatePollTx(ctx context.Context, tx *gorm.DB, poll *models.Poll) error {
	if tx == nil || poll == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(poll).Error
}

func (s *Store) GetPollForUpdateTx(ctx context.Context, tx *gorm.DB, id string) (*models.Poll, error) {
	if tx == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var poll models.Poll
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&poll, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

func (s *Store) SavePollTx(ctx context.Context, tx *gorm.DB, poll *models.Poll) error {
	if tx == nil || poll == nil {
		return nil
	}
	return tx.WithContext(ctx).Save(poll).Error
}

func (s *Store) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var poll models.Poll
	if err := s.db.WithContext(ctx).First(&poll, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &poll, nil
}

func (s *Store) ListPolls(ctx context.Context, params repository.ListPollsParams) ([]models.Poll, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.pollQuery(ctx, params).Order("created_at desc")
	var items []models.Poll
	if err := query.Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPolls(ctx context.Context, params repository.ListPollsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.pollQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) CountPollsPastDeadline(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Poll{}).
		Where("status = ?", models.PollStatusActive).
		Where("closes_at <= ?", now).
		Count(&total).Error
	return total, err
}

func (s *Store) pollQuery(ctx context.Context, params repository.ListPollsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Poll{})
	if params.Status != nil && *params.Status != "" {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Authority != nil && *params.Authority != "" {
		query = query.Where("authority = ?", *params.Authority)
	}
	return query
}

// --- Vote records -----------------------------------------------------------

func (s *Store) CreateVoteRecordTx(ctx context.Context, tx *gorm.DB, rec *models.VoteRecord) error {
	if tx == nil || rec == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(rec).Error
}

func (s *Store) GetVoteRecordForUpdateTx(ctx context.Context, tx *gorm.DB, id string) (*models.VoteRecord, error) {
	if tx == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var rec models.VoteRecord
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) SaveVoteRecordTx(ctx context.Context, tx *gorm.DB, rec *models.VoteRecord) error {
	if tx == nil || rec == nil {
		return nil
	}
	return tx.WithContext(ctx).Save(rec).Error
}

func (s *Store) GetVoteRecord(ctx context.Context, id string) (*models.VoteRecord, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var rec models.VoteRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListVoteRecords(ctx context.Context, params repository.ListVoteRecordsParams) ([]models.VoteRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.voteQuery(ctx, params).Order("created_at desc")
	var items []models.VoteRecord
	if err := query.Limit(normalizeLimit(params.Limit, 200)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountVoteRecords(ctx context.Context, params repository.ListVoteRecordsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.voteQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) voteQuery(ctx context.Context, params repository.ListVoteRecordsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.VoteRecord{})
	if params.PollID != nil && *params.PollID != "" {
		query = query.Where("poll_id = ?", *params.PollID)
	}
	if params.UserID != nil && *params.UserID != "" {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Claimed != nil {
		query = query.Where("claimed = ?", *params.Claimed)
	}
	return query
}

// --- Vaults -----------------------------------------------------------------

func (s *Store) GetVault(ctx context.Context, id string) (*models.Vault, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var vault models.Vault
	if err := s.db.WithContext(ctx).First(&vault, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vault, nil
}

// --- Events -----------------------------------------------------------------

func (s *Store) ListMarketEvents(ctx context.Context, pollID string, limit int) ([]models.MarketEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.MarketEvent{})
	if pollID != "" {
		query = query.Where("poll_id = ?", pollID)
	}
	var items []models.MarketEvent
	err := query.Order("id desc").
		Limit(normalizeLimit(limit, 200)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteMarketEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.MarketEvent{})
	return res.RowsAffected, res.Error
}

// IsNotFound reports whether err is the backing store's missing-row
// error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
