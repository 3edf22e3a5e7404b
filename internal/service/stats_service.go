package service

import (
	"context"

	"fest-ticketing/internal/model"
	"fest-ticketing/internal/repository"
	apperrors "fest-ticketing/pkg/app_errors"
)

type StatsService interface {
	GetAdminStats(ctx context.Context, identity model.Identity) (*model.AdminStats, error)
}

type StatsServiceImpl struct {
	repo repository.StatsRepository
}

func NewStatsService(repo repository.StatsRepository) StatsService {
	return &StatsServiceImpl{repo: repo}
}

func (s *StatsServiceImpl) GetAdminStats(ctx context.Context, identity model.Identity) (*model.AdminStats, error) {
	if !identity.IsAdmin {
		return nil, apperrors.ErrForbidden
	}
	return s.repo.GetAdminStats(ctx)
}
