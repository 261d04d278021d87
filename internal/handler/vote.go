package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pollmarket/internal/auth"
	"pollmarket/internal/repository"
	"pollmarket/internal/service"
)

type VoteHandler struct {
	Market *service.MarketService
	Query  *service.MarketQueryService
	Logger *zap.Logger
}

func (h *VoteHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/polls/:id/votes", h.vote)
	group := r.Group("/api/v1/votes")
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.POST("/:id/claim", h.claim)
}

type voteRequest struct {
	Outcome string `json:"outcome"`
	Amount  uint64 `json:"amount"`
}

// @Summary Stake on one outcome of a poll
// @Tags votes
// @Router /api/v1/polls/{id}/votes [post]
func (h *VoteHandler) vote(c *gin.Context) {
	caller := auth.Caller(c)
	if caller == "" {
		Error(c, http.StatusUnauthorized, "caller identity required", nil)
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.Amount == 0 {
		Error(c, http.StatusBadRequest, "amount must be positive", nil)
		return
	}
	rec, err := h.Market.Vote(c.Request.Context(), c.Param("id"), caller, strings.TrimSpace(req.Outcome), req.Amount)
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toVoteView(rec), nil)
}

func (h *VoteHandler) list(c *gin.Context) {
	params := repository.ListVoteRecordsParams{
		Limit:  parseIntQuery(c, "limit", 200),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := strings.TrimSpace(c.Query("poll_id")); raw != "" {
		params.PollID = &raw
	}
	if raw := strings.TrimSpace(c.Query("user")); raw != "" {
		params.UserID = &raw
	}
	switch strings.ToLower(strings.TrimSpace(c.Query("claimed"))) {
	case "true":
		v := true
		params.Claimed = &v
	case "false":
		v := false
		params.Claimed = &v
	}
	res, err := h.Query.ListVoteRecords(c.Request.Context(), params)
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toVoteViews(res.Items), map[string]any{"total": res.Total})
}

func (h *VoteHandler) get(c *gin.Context) {
	rec, err := h.Query.GetVoteRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toVoteView(rec), nil)
}

// @Summary Claim winnings for a resolved poll
// @Tags votes
// @Router /api/v1/votes/{id}/claim [post]
func (h *VoteHandler) claim(c *gin.Context) {
	caller := auth.Caller(c)
	if caller == "" {
		Error(c, http.StatusUnauthorized, "caller identity required", nil)
		return
	}
	rec, payout, err := h.Market.ClaimWinnings(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		failWith(c, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("winnings claimed",
			zap.String("vote_id", rec.ID),
			zap.String("user", caller),
			zap.Uint64("payout", payout),
		)
	}
	Ok(c, toVoteView(rec), map[string]any{"payout": payout})
}
