package repository

import (
	"context"
	"fmt"

	"fest-ticketing/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository interface {
	GetAdminStats(ctx context.Context) (*model.AdminStats, error)
}

type StatsRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &StatsRepositoryImpl{
		pool: pool,
	}
}

// GetAdminStats reads all three figures in one statement so they share a snapshot.
func (r *StatsRepositoryImpl) GetAdminStats(ctx context.Context) (*model.AdminStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM registrations),
			(SELECT COALESCE(SUM(payment_amount), 0) FROM registrations WHERE payment_status = $1)
	`
	var stats model.AdminStats
	err := r.pool.QueryRow(ctx, query, model.PaymentStatusCompleted).Scan(
		&stats.TotalEvents,
		&stats.TotalRegistrations,
		&stats.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &stats, nil
}
