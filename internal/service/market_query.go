package service

import (
	"context"

	"pollmarket/internal/models"
	"pollmarket/internal/repository"
)

type MarketQueryService struct {
	Repo repository.Repository
}

type PollsResult struct {
	Items []models.Poll
	Total int64
}

type VoteRecordsResult struct {
	Items []models.VoteRecord
	Total int64
}

func (s *MarketQueryService) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	return s.Repo.GetPoll(ctx, id)
}

func (s *MarketQueryService) ListPolls(ctx context.Context, params repository.ListPollsParams) (PollsResult, error) {
	total, err := s.Repo.CountPolls(ctx, params)
	if err != nil {
		return PollsResult{}, err
	}
	items, err := s.Repo.ListPolls(ctx, params)
	if err != nil {
		return PollsResult{}, err
	}
	return PollsResult{Items: items, Total: total}, nil
}

func (s *MarketQueryService) GetVoteRecord(ctx context.Context, id string) (*models.VoteRecord, error) {
	return s.Repo.GetVoteRecord(ctx, id)
}

func (s *MarketQueryService) ListVoteRecords(ctx context.Context, params repository.ListVoteRecordsParams) (VoteRecordsResult, error) {
	total, err := s.Repo.CountVoteRecords(ctx, params)
	if err != nil {
		return VoteRecordsResult{}, err
	}
	items, err := s.Repo.ListVoteRecords(ctx, params)
	if err != nil {
		return VoteRecordsResult{}, err
	}
	return VoteRecordsResult{Items: items, Total: total}, nil
}

func (s *MarketQueryService) GetVault(ctx context.Context, id string) (*models.Vault, error) {
	return s.Repo.GetVault(ctx, id)
}

func (s *MarketQueryService) ListMarketEvents(ctx context.Context, pollID string, limit int) ([]models.MarketEvent, error) {
	return s.Repo.ListMarketEvents(ctx, pollID, limit)
}
