package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pollmarket/internal/event"
	"pollmarket/internal/ledger"
	"pollmarket/internal/market"
	"pollmarket/internal/models"
	"pollmarket/internal/repository"
)

// MarketService runs each lifecycle operation inside one database
// transaction: the poll row is locked before precondition checks, and
// ledger transfers share the transaction, so an operation either lands
// completely or leaves nothing behind.
type MarketService struct {
	Repo   repository.Repository
	Ledger *ledger.Service
	Engine *market.Engine
	Events event.Sink
	Logger *zap.Logger
}

func (s *MarketService) CreatePoll(ctx context.Context, params market.CreatePollParams) (*models.Poll, error) {
	poll, err := s.Engine.CreatePoll(params)
	if err != nil {
		return nil, err
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Ledger.EnsureVault(tx, ledger.PoolVaultID(poll.ID), ledger.PoolAuthority(poll.ID), poll.SettlementToken); err != nil {
			return err
		}
		if err := s.Ledger.EnsureVault(tx, ledger.FeeVaultID(poll.SettlementToken), s.Engine.Admin, poll.SettlementToken); err != nil {
			return err
		}
		return s.Repo.CreatePollTx(ctx, tx, poll)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, event.PollCreated(poll))
	return poll, nil
}

func (s *MarketService) Vote(ctx context.Context, pollID, caller, chosenOutcome string, amount uint64) (*models.VoteRecord, error) {
	var rec *models.VoteRecord
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		poll, err := s.Repo.GetPollForUpdateTx(ctx, tx, pollID)
		if err != nil {
			return err
		}
		rec, err = s.Engine.Vote(poll, caller, chosenOutcome, amount, s.accounts(poll, caller), s.transferFn(tx))
		if err != nil {
			return err
		}
		if err := s.Repo.SavePollTx(ctx, tx, poll); err != nil {
			return err
		}
		return s.Repo.CreateVoteRecordTx(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("vote recorded",
			zap.String("poll_id", pollID),
			zap.String("user", caller),
			zap.Uint64("stake", amount),
			zap.Uint64("shares", rec.SharesReceived),
			zap.Uint64("price_bps", rec.PriceAtStake),
		)
	}
	return rec, nil
}

func (s *MarketService) ResolvePoll(ctx context.Context, pollID, caller, winningOutcome string) (*models.Poll, error) {
	var poll *models.Poll
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		poll, err = s.Repo.GetPollForUpdateTx(ctx, tx, pollID)
		if err != nil {
			return err
		}
		if err := s.Engine.Resolve(poll, caller, winningOutcome); err != nil {
			return err
		}
		return s.Repo.SavePollTx(ctx, tx, poll)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, event.PollResolved(poll, caller))
	return poll, nil
}

func (s *MarketService) CancelPoll(ctx context.Context, pollID, caller string) (*models.Poll, error) {
	var poll *models.Poll
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		poll, err = s.Repo.GetPollForUpdateTx(ctx, tx, pollID)
		if err != nil {
			return err
		}
		if err := s.Engine.Cancel(poll, caller); err != nil {
			return err
		}
		return s.Repo.SavePollTx(ctx, tx, poll)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, event.PollCanceled(poll, caller))
	return poll, nil
}

func (s *MarketService) AddLiquidity(ctx context.Context, pollID, caller string, addA, addB uint64) (*models.Poll, error) {
	var poll *models.Poll
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		poll, err = s.Repo.GetPollForUpdateTx(ctx, tx, pollID)
		if err != nil {
			return err
		}
		if err := s.Engine.AddLiquidity(poll, caller, addA, addB, s.accounts(poll, caller), s.transferFn(tx)); err != nil {
			return err
		}
		return s.Repo.SavePollTx(ctx, tx, poll)
	})
	if err != nil {
		return nil, err
	}
	return poll, nil
}

func (s *MarketService) ClaimWinnings(ctx context.Context, voteID, caller string) (*models.VoteRecord, uint64, error) {
	var (
		rec    *models.VoteRecord
		poll   *models.Poll
		payout uint64
	)
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		rec, err = s.Repo.GetVoteRecordForUpdateTx(ctx, tx, voteID)
		if err != nil {
			return err
		}
		poll, err = s.Repo.GetPollForUpdateTx(ctx, tx, rec.PollID)
		if err != nil {
			return err
		}
		payout, err = s.Engine.Claim(poll, rec, caller, s.accounts(poll, caller), s.transferFn(tx))
		if err != nil {
			return err
		}
		return s.Repo.SaveVoteRecordTx(ctx, tx, rec)
	})
	if err != nil {
		return nil, 0, err
	}
	s.emit(ctx, event.WinningsClaimed(poll, caller, payout))
	return rec, payout, nil
}

// ImpliedPrice quotes the current basis-point price for one of the
// poll's outcomes.
func (s *MarketService) ImpliedPrice(ctx context.Context, pollID, outcome string) (uint64, error) {
	poll, err := s.Repo.GetPoll(ctx, pollID)
	if err != nil {
		return 0, err
	}
	switch outcome {
	case poll.OutcomeA:
		return market.ImpliedPriceBps(poll.ReserveA, poll.ReserveB, true)
	case poll.OutcomeB:
		return market.ImpliedPriceBps(poll.ReserveA, poll.ReserveB, false)
	default:
		return 0, market.ErrInvalidOutcomeChoice
	}
}

// Deposit credits a user vault. Operator-only faucet for environments
// without an external token bridge.
func (s *MarketService) Deposit(ctx context.Context, caller, user, token string, amount uint64) error {
	if s.Engine.Admin == "" || caller != s.Engine.Admin {
		return market.ErrUnauthorized
	}
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		return s.Ledger.Deposit(tx, ledger.UserVaultID(user, token), user, token, amount)
	})
}

func (s *MarketService) accounts(poll *models.Poll, caller string) market.Accounts {
	return market.Accounts{
		CallerVault:   ledger.UserVaultID(caller, poll.SettlementToken),
		PoolVault:     ledger.PoolVaultID(poll.ID),
		FeeVault:      ledger.FeeVaultID(poll.SettlementToken),
		PoolAuthority: ledger.PoolAuthority(poll.ID),
	}
}

func (s *MarketService) transferFn(tx *gorm.DB) market.TransferFunc {
	return func(from, to, authorizer string, amount uint64) error {
		return s.Ledger.Transfer(tx, from, to, authorizer, amount)
	}
}

func (s *MarketService) emit(ctx context.Context, ev event.Event) {
	if s.Events != nil {
		s.Events.Emit(ctx, ev)
	}
}
