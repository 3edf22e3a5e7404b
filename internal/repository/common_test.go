package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fest-ticketing/internal/database"
	"fest-ticketing/internal/model"
	"fest-ticketing/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// createTestUser 輔助函數：創建測試用的 user
func createTestUser(t *testing.T, pool *pgxpool.Pool, email string) *model.User {
	t.Helper()
	user, err := repository.NewUserRepository(pool).Create(context.Background(), &model.User{
		FullName:     "Test " + email,
		Email:        email,
		Phone:        "9876543210",
		College:      "NIT",
		Course:       "CSE",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}

// createTestEvent 輔助函數：創建測試用的 event
func createTestEvent(t *testing.T, pool *pgxpool.Pool, name string, price float64, max int, date time.Time) *model.Event {
	t.Helper()
	event, err := repository.NewEventRepository(pool).Create(context.Background(), &model.Event{
		Name:            name,
		Description:     name + " description",
		Date:            date,
		Location:        "Main Hall",
		Price:           price,
		MaxParticipants: max,
	})
	require.NoError(t, err)
	return event
}

// insertRegistration 在獨立 transaction 中寫入一筆報名
func insertRegistration(t *testing.T, pool *pgxpool.Pool, userID, eventID uuid.UUID, amount float64, status model.PaymentStatus, code string) (bool, error) {
	t.Helper()
	var inserted bool
	err := database.NewTransactor(pool).WithinTx(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		var err error
		inserted, err = repository.NewRegistrationRepository(pool).Insert(ctx, tx, &model.Registration{
			UserID:        userID,
			EventID:       eventID,
			PaymentAmount: amount,
			PaymentStatus: status,
			TicketCode:    code,
		})
		return err
	})
	return inserted, err
}

// assertRowCount 輔助函數：檢查資料表的行數
func assertRowCount(t *testing.T, pool *pgxpool.Pool, table string, expected int) {
	t.Helper()
	var count int
	err := pool.QueryRow(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count, "rows in %s", table)
}

func eventDate(day int) time.Time {
	return time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC)
}
