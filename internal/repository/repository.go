package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pollmarket/internal/models"
)

type ListPollsParams struct {
	Status    *models.PollStatus
	Authority *string
	Limit     int
	Offset    int
}

type ListVoteRecordsParams struct {
	PollID  *string
	UserID  *string
	Claimed *bool
	Limit   int
	Offset  int
}

// Repository persists the market's ledger records. Mutating lifecycle
// operations run inside InTx and fetch the rows they will touch with
// the ForUpdate variants, so precondition checks and the following
// write act as one step.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	CreatePollTx(ctx context.Context, tx *gorm.DB, poll *models.Poll) error
	GetPollForUpdateTx(ctx context.Context, tx *gorm.DB, id string) (*models.Poll, error)
	SavePollTx(ctx context.Context, tx *gorm.DB, poll *models.Poll) error

	GetPoll(ctx context.Context, id string) (*models.Poll, error)
	ListPolls(ctx context.Context, params ListPollsParams) ([]models.Poll, error)
	CountPolls(ctx context.Context, params ListPollsParams) (int64, error)
	CountPollsPastDeadline(ctx context.Context, now time.Time) (int64, error)

	CreateVoteRecordTx(ctx context.Context, tx *gorm.DB, rec *models.VoteRecord) error
	GetVoteRecordForUpdateTx(ctx context.Context, tx *gorm.DB, id string) (*models.VoteRecord, error)
	SaveVoteRecordTx(ctx context.Context, tx *gorm.DB, rec *models.VoteRecord) error

	GetVoteRecord(ctx context.Context, id string) (*models.VoteRecord, error)
	ListVoteRecords(ctx context.Context, params ListVoteRecordsParams) ([]models.VoteRecord, error)
	CountVoteRecords(ctx context.Context, params ListVoteRecordsParams) (int64, error)

	GetVault(ctx context.Context, id string) (*models.Vault, error)

	ListMarketEvents(ctx context.Context, pollID string, limit int) ([]models.MarketEvent, error)
	DeleteMarketEventsBefore(ctx context.Context, before time.Time) (int64, error)
}
