package handler

import (
	"encoding/json"
	"time"

	"pollmarket/internal/models"
)

type pollView struct {
	ID              string    `json:"id"`
	Authority       string    `json:"authority"`
	Title           string    `json:"title"`
	ClosesAt        time.Time `json:"closes_at"`
	OutcomeA        string    `json:"outcome_a"`
	OutcomeB        string    `json:"outcome_b"`
	ReserveA        uint64    `json:"reserve_a"`
	ReserveB        uint64    `json:"reserve_b"`
	InvariantK      uint64    `json:"invariant_k"`
	Status          string    `json:"status"`
	WinningOutcome  *string   `json:"winning_outcome,omitempty"`
	SettlementToken string    `json:"settlement_token"`
	CreatedAt       time.Time `json:"created_at"`
}

func toPollView(p *models.Poll) pollView {
	return pollView{
		ID:              p.ID,
		Authority:       p.Authority,
		Title:           p.Title,
		ClosesAt:        p.ClosesAt,
		OutcomeA:        p.OutcomeA,
		OutcomeB:        p.OutcomeB,
		ReserveA:        p.ReserveA,
		ReserveB:        p.ReserveB,
		InvariantK:      p.InvariantK,
		Status:          string(p.Status),
		WinningOutcome:  p.WinningOutcome,
		SettlementToken: p.SettlementToken,
		CreatedAt:       p.CreatedAt,
	}
}

func toPollViews(items []models.Poll) []pollView {
	out := make([]pollView, 0, len(items))
	for i := range items {
		out = append(out, toPollView(&items[i]))
	}
	return out
}

type voteView struct {
	ID             string    `json:"id"`
	PollID         string    `json:"poll_id"`
	UserID         string    `json:"user_id"`
	ChosenOutcome  string    `json:"chosen_outcome"`
	SharesReceived uint64    `json:"shares_received"`
	StakeValue     uint64    `json:"stake_value"`
	PriceAtStake   uint64    `json:"price_at_stake"`
	Claimed        bool      `json:"claimed"`
	CreatedAt      time.Time `json:"created_at"`
}

func toVoteView(v *models.VoteRecord) voteView {
	return voteView{
		ID:             v.ID,
		PollID:         v.PollID,
		UserID:         v.UserID,
		ChosenOutcome:  v.ChosenOutcome,
		SharesReceived: v.SharesReceived,
		StakeValue:     v.StakeValue,
		PriceAtStake:   v.PriceAtStake,
		Claimed:        v.Claimed,
		CreatedAt:      v.CreatedAt,
	}
}

func toVoteViews(items []models.VoteRecord) []voteView {
	out := make([]voteView, 0, len(items))
	for i := range items {
		out = append(out, toVoteView(&items[i]))
	}
	return out
}

type vaultView struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Token   string `json:"token"`
	Balance string `json:"balance"`
}

func toVaultView(v *models.Vault) vaultView {
	return vaultView{
		ID:      v.ID,
		Owner:   v.Owner,
		Token:   v.Token,
		Balance: v.Balance.String(),
	}
}

type eventView struct {
	ID        uint64          `json:"id"`
	Type      string          `json:"type"`
	PollID    string          `json:"poll_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func toEventViews(items []models.MarketEvent) []eventView {
	out := make([]eventView, 0, len(items))
	for _, it := range items {
		out = append(out, eventView{
			ID:        it.ID,
			Type:      it.Type,
			PollID:    it.PollID,
			Payload:   json.RawMessage(it.Payload),
			CreatedAt: it.CreatedAt,
		})
	}
	return out
}
