package market

import (
	"time"

	"github.com/google/uuid"

	"pollmarket/internal/models"
)

// MaxTitleBytes bounds poll titles at creation.
const MaxTitleBytes = 64

// TransferFunc moves settlement tokens between two custodial vaults on
// behalf of authorizer. It is all-or-nothing: on error no balance
// changed. The engine requests transfers before it mutates any record,
// so a failed transfer aborts the operation with state untouched.
type TransferFunc func(from, to, authorizer string, amount uint64) error

// Accounts names the vaults and signing authority one operation moves
// tokens between. The service derives them; the engine never builds
// vault identifiers itself.
type Accounts struct {
	CallerVault string
	PoolVault   string
	FeeVault    string
	// PoolAuthority is the poll-scoped signing identity that owns the
	// pool vault; it authorizes payouts on claim.
	PoolAuthority string
}

// Engine is the poll lifecycle state machine. It mutates Poll and
// VoteRecord values in memory only; persistence and transaction
// boundaries belong to the caller.
type Engine struct {
	// Admin is the configured second privileged identity allowed to
	// resolve or cancel any poll.
	Admin string
	// Now supplies the voting-deadline clock. Defaults to UTC wall
	// clock when nil.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

type CreatePollParams struct {
	Authority       string
	Title           string
	ClosesAt        time.Time
	OutcomeA        string
	OutcomeB        string
	InitialReserveA uint64
	InitialReserveB uint64
	SettlementToken string
}

// CreatePoll builds a new active poll with invariant k = a*b.
func (e *Engine) CreatePoll(p CreatePollParams) (*models.Poll, error) {
	if len(p.Title) > MaxTitleBytes {
		return nil, ErrTitleTooLong
	}
	if p.InitialReserveA == 0 || p.InitialReserveB == 0 {
		return nil, ErrInvalidShares
	}
	k, err := InvariantFor(p.InitialReserveA, p.InitialReserveB)
	if err != nil {
		return nil, err
	}
	return &models.Poll{
		ID:              uuid.NewString(),
		Authority:       p.Authority,
		Title:           p.Title,
		ClosesAt:        p.ClosesAt,
		OutcomeA:        p.OutcomeA,
		OutcomeB:        p.OutcomeB,
		ReserveA:        p.InitialReserveA,
		ReserveB:        p.InitialReserveB,
		InvariantK:      k,
		Status:          models.PollStatusActive,
		SettlementToken: p.SettlementToken,
	}, nil
}

// Vote stakes amount on chosenOutcome. Preconditions run before any
// transfer; the net stake moves to the pool vault and the fee to the
// fee vault before the reserves change hands.
func (e *Engine) Vote(poll *models.Poll, caller, chosenOutcome string, amount uint64, acct Accounts, transfer TransferFunc) (*models.VoteRecord, error) {
	if poll.Status != models.PollStatusActive {
		return nil, ErrPollNotActive
	}
	if !e.now().Before(poll.ClosesAt) {
		return nil, ErrPollClosed
	}
	backA, err := outcomeSide(poll, chosenOutcome)
	if err != nil {
		return nil, err
	}

	net, fee := SplitFee(amount)
	if err := transfer(acct.CallerVault, acct.PoolVault, caller, net); err != nil {
		return nil, err
	}
	if err := transfer(acct.CallerVault, acct.FeeVault, caller, fee); err != nil {
		return nil, err
	}

	swap, err := ApplySwap(poll.ReserveA, poll.ReserveB, poll.InvariantK, backA, amount)
	if err != nil {
		return nil, err
	}
	poll.ReserveA = swap.NewReserveA
	poll.ReserveB = swap.NewReserveB

	price, err := ImpliedPriceBps(poll.ReserveA, poll.ReserveB, backA)
	if err != nil {
		return nil, err
	}
	return &models.VoteRecord{
		ID:             uuid.NewString(),
		PollID:         poll.ID,
		UserID:         caller,
		ChosenOutcome:  chosenOutcome,
		SharesReceived: swap.SharesOut,
		StakeValue:     amount,
		PriceAtStake:   price,
	}, nil
}

// Resolve marks the winning outcome. Terminal and irreversible.
// Accepts polls whose stored status is the legacy "closed" value as
// well as active polls past their deadline.
func (e *Engine) Resolve(poll *models.Poll, caller, winningOutcome string) error {
	if !CanAdminister(poll, caller, e.Admin) {
		return ErrUnauthorized
	}
	if poll.Status != models.PollStatusActive && poll.Status != models.PollStatusClosed {
		return ErrPollNotActive
	}
	if winningOutcome != poll.OutcomeA && winningOutcome != poll.OutcomeB {
		return ErrInvalidOutcomeChoice
	}
	poll.Status = models.PollStatusResolved
	poll.WinningOutcome = &winningOutcome
	return nil
}

// Cancel voids the poll. Terminal and irreversible.
func (e *Engine) Cancel(poll *models.Poll, caller string) error {
	if !CanAdminister(poll, caller, e.Admin) {
		return ErrUnauthorized
	}
	if poll.Terminal() {
		return ErrPollNotActive
	}
	poll.Status = models.PollStatusCanceled
	return nil
}

// AddLiquidity deepens both reserves and re-records the invariant.
// Deliberately has no status precondition: liquidity can be added to
// any poll, matching the historical behavior this market inherited.
func (e *Engine) AddLiquidity(poll *models.Poll, caller string, addA, addB uint64, acct Accounts, transfer TransferFunc) error {
	if err := transfer(acct.CallerVault, acct.PoolVault, caller, addA); err != nil {
		return err
	}
	if err := transfer(acct.CallerVault, acct.PoolVault, caller, addB); err != nil {
		return err
	}
	newA, newB, newK, err := GrowLiquidity(poll.ReserveA, poll.ReserveB, addA, addB)
	if err != nil {
		return err
	}
	poll.ReserveA = newA
	poll.ReserveB = newB
	poll.InvariantK = newK
	return nil
}

// Claim pays out a winning vote record. The pool-vault transfer is
// authorized by the poll-scoped pool authority and precedes the
// claimed-flag write, so a failed transfer leaves the record
// claimable.
func (e *Engine) Claim(poll *models.Poll, rec *models.VoteRecord, caller string, acct Accounts, transfer TransferFunc) (uint64, error) {
	if poll.Status != models.PollStatusResolved {
		return 0, ErrPollNotResolved
	}
	if rec.PollID != poll.ID {
		return 0, ErrInvalidVoteRecord
	}
	if rec.UserID != caller {
		return 0, ErrUnauthorized
	}
	if rec.Claimed {
		return 0, ErrAlreadyClaimed
	}
	if poll.WinningOutcome == nil {
		return 0, ErrPollNotResolved
	}
	if rec.ChosenOutcome != *poll.WinningOutcome {
		return 0, ErrNotWinner
	}
	payout := rec.SharesReceived
	if err := transfer(acct.PoolVault, acct.CallerVault, acct.PoolAuthority, payout); err != nil {
		return 0, err
	}
	rec.Claimed = true
	return payout, nil
}

func outcomeSide(poll *models.Poll, outcome string) (backA bool, err error) {
	switch outcome {
	case poll.OutcomeA:
		return true, nil
	case poll.OutcomeB:
		return false, nil
	default:
		return false, ErrInvalidOutcomeChoice
	}
}
