package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pollmarket/internal/auth"
	"pollmarket/internal/market"
	"pollmarket/internal/models"
	"pollmarket/internal/repository"
	"pollmarket/internal/service"
)

type PollHandler struct {
	Market *service.MarketService
	Query  *service.MarketQueryService
	Logger *zap.Logger
}

func (h *PollHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/polls")
	group.POST("", h.create)
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.GET("/:id/price", h.price)
	group.GET("/:id/events", h.events)
	group.POST("/:id/resolve", h.resolve)
	group.POST("/:id/cancel", h.cancel)
	group.POST("/:id/liquidity", h.addLiquidity)
}

type createPollRequest struct {
	Title           string `json:"title"`
	ClosesAt        string `json:"closes_at"`
	OutcomeA        string `json:"outcome_a"`
	OutcomeB        string `json:"outcome_b"`
	InitialReserveA uint64 `json:"initial_reserve_a"`
	InitialReserveB uint64 `json:"initial_reserve_b"`
	SettlementToken string `json:"settlement_token"`
}

// @Summary Create poll
// @Tags polls
// @Router /api/v1/polls [post]
func (h *PollHandler) create(c *gin.Context) {
	caller := auth.Caller(c)
	if caller == "" {
		Error(c, http.StatusUnauthorized, "caller identity required", nil)
		return
	}
	var req createPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	closesAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ClosesAt))
	if err != nil {
		Error(c, http.StatusBadRequest, "closes_at must be RFC3339", nil)
		return
	}
	req.OutcomeA = strings.TrimSpace(req.OutcomeA)
	req.OutcomeB = strings.TrimSpace(req.OutcomeB)
	req.SettlementToken = strings.TrimSpace(req.SettlementToken)
	if req.OutcomeA == "" || req.OutcomeB == "" || req.SettlementToken == "" {
		Error(c, http.StatusBadRequest, "outcome_a, outcome_b and settlement_token required", nil)
		return
	}
	poll, err := h.Market.CreatePoll(c.Request.Context(), market.CreatePollParams{
		Authority:       caller,
		Title:           req.Title,
		ClosesAt:        closesAt.UTC(),
		OutcomeA:        req.OutcomeA,
		OutcomeB:        req.OutcomeB,
		InitialReserveA: req.InitialReserveA,
		InitialReserveB: req.InitialReserveB,
		SettlementToken: req.SettlementToken,
	})
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toPollView(poll), nil)
}

// @Summary List polls
// @Tags polls
// @Router /api/v1/polls [get]
func (h *PollHandler) list(c *gin.Context) {
	params := repository.ListPollsParams{
		Limit:  parseIntQuery(c, "limit", 100),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.PollStatus(strings.ToLower(raw))
		params.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("authority")); raw != "" {
		params.Authority = &raw
	}
	res, err := h.Query.ListPolls(c.Request.Context(), params)
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toPollViews(res.Items), map[string]any{"total": res.Total})
}

func (h *PollHandler) get(c *gin.Context) {
	poll, err := h.Query.GetPoll(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toPollView(poll), nil)
}

// @Summary Implied outcome price in basis points
// @Tags polls
// @Router /api/v1/polls/{id}/price [get]
func (h *PollHandler) price(c *gin.Context) {
	outcome := strings.TrimSpace(c.Query("outcome"))
	if outcome == "" {
		Error(c, http.StatusBadRequest, "outcome query param required", nil)
		return
	}
	price, err := h.Market.ImpliedPrice(c.Request.Context(), c.Param("id"), outcome)
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, gin.H{"outcome": outcome, "price_bps": price}, nil)
}

func (h *PollHandler) events(c *gin.Context) {
	items, err := h.Query.ListMarketEvents(c.Request.Context(), c.Param("id"), parseIntQuery(c, "limit", 200))
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toEventViews(items), nil)
}

type resolvePollRequest struct {
	WinningOutcome string `json:"winning_outcome"`
}

// @Summary Resolve poll
// @Tags polls
// @Router /api/v1/polls/{id}/resolve [post]
func (h *PollHandler) resolve(c *gin.Context) {
	caller := auth.Caller(c)
	if caller == "" {
		Error(c, http.StatusUnauthorized, "caller identity required", nil)
		return
	}
	var req resolvePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	poll, err := h.Market.ResolvePoll(c.Request.Context(), c.Param("id"), caller, strings.TrimSpace(req.WinningOutcome))
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toPollView(poll), nil)
}

// @Summary Cancel poll
// @Tags polls
// @Router /api/v1/polls/{id}/cancel [post]
func (h *PollHandler) cancel(c *gin.Context) {
	caller := auth.Caller(c)
	if caller == "" {
		Error(c, http.StatusUnauthorized, "caller identity required", nil)
		return
	}
	poll, err := h.Market.CancelPoll(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toPollView(poll), nil)
}

type addLiquidityRequest struct {
	AddA uint64 `json:"add_a"`
	AddB uint64 `json:"add_b"`
}

// @Summary Add liquidity to both reserves
// @Tags polls
// @Router /api/v1/polls/{id}/liquidity [post]
func (h *PollHandler) addLiquidity(c *gin.Context) {
	caller := auth.Caller(c)
	if caller == "" {
		Error(c, http.StatusUnauthorized, "caller identity required", nil)
		return
	}
	var req addLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	poll, err := h.Market.AddLiquidity(c.Request.Context(), c.Param("id"), caller, req.AddA, req.AddB)
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toPollView(poll), nil)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
