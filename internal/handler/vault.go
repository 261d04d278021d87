package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pollmarket/internal/auth"
	"pollmarket/internal/service"
)

type VaultHandler struct {
	Market *service.MarketService
	Query  *service.MarketQueryService
}

func (h *VaultHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/vaults")
	group.GET("/:id", h.get)
	group.POST("/deposit", h.deposit)
}

func (h *VaultHandler) get(c *gin.Context) {
	vault, err := h.Query.GetVault(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	Ok(c, toVaultView(vault), nil)
}

type depositRequest struct {
	User   string `json:"user"`
	Token  string `json:"token"`
	Amount uint64 `json:"amount"`
}

// @Summary Credit a user vault (operator only)
// @Tags vaults
// @Router /api/v1/vaults/deposit [post]
func (h *VaultHandler) deposit(c *gin.Context) {
	caller := auth.Caller(c)
	if caller == "" {
		Error(c, http.StatusUnauthorized, "caller identity required", nil)
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.User = strings.TrimSpace(req.User)
	req.Token = strings.TrimSpace(req.Token)
	if req.User == "" || req.Token == "" || req.Amount == 0 {
		Error(c, http.StatusBadRequest, "user, token and positive amount required", nil)
		return
	}
	if err := h.Market.Deposit(c.Request.Context(), caller, req.User, req.Token, req.Amount); err != nil {
		failWith(c, err)
		return
	}
	Ok(c, gin.H{"user": req.User, "token": req.Token, "amount": req.Amount}, nil)
}
