package market

import "errors"

// Every lifecycle precondition violation maps to exactly one of these.
// They are returned verbatim to the caller and never wrapped into a
// generic failure; a failed operation leaves no partial mutation.
var (
	ErrPollNotActive         = errors.New("poll is not active")
	ErrPollClosed            = errors.New("poll is closed")
	ErrPollNotResolved       = errors.New("poll is not resolved yet")
	ErrInvalidOutcomeChoice  = errors.New("invalid outcome choice")
	ErrInsufficientLiquidity = errors.New("not enough liquidity")
	ErrUnauthorized          = errors.New("unauthorized action")
	ErrTitleTooLong          = errors.New("title too long (max 64 bytes)")
	ErrInvalidShares         = errors.New("invalid share amounts")
	ErrInvalidVoteRecord     = errors.New("invalid vote record")
	ErrAlreadyClaimed        = errors.New("winnings already claimed")
	ErrNotWinner             = errors.New("vote did not win")
	ErrArithmeticOverflow    = errors.New("arithmetic overflow")
)
