package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pollmarket/internal/ledger"
	"pollmarket/internal/market"
)

// statusFor maps the market's error taxonomy onto HTTP statuses.
// Precondition violations on current state are conflicts; malformed
// requests are bad requests; unknown records are not found. Anything
// unrecognized is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, ledger.ErrUnknownVault):
		return http.StatusNotFound
	case errors.Is(err, market.ErrUnauthorized),
		errors.Is(err, ledger.ErrInvalidTokenOwner):
		return http.StatusForbidden
	case errors.Is(err, market.ErrTitleTooLong),
		errors.Is(err, market.ErrInvalidShares),
		errors.Is(err, market.ErrInvalidOutcomeChoice),
		errors.Is(err, market.ErrInvalidVoteRecord),
		errors.Is(err, market.ErrArithmeticOverflow),
		errors.Is(err, ledger.ErrInvalidTokenMint):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrPollNotActive),
		errors.Is(err, market.ErrPollClosed),
		errors.Is(err, market.ErrPollNotResolved),
		errors.Is(err, market.ErrAlreadyClaimed),
		errors.Is(err, market.ErrNotWinner),
		errors.Is(err, market.ErrInsufficientLiquidity),
		errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func failWith(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	Error(c, status, msg, nil)
}
