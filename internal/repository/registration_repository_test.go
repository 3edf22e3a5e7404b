package repository_test

import (
	"context"
	"testing"

	"fest-ticketing/internal/database"
	"fest-ticketing/internal/model"
	"fest-ticketing/internal/repository"
	"fest-ticketing/internal/testutil"
	apperrors "fest-ticketing/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationRepository_Insert(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		pool := testutil.Postgres(t)
		user := createTestUser(t, pool, "asha@fest.io")
		event := createTestEvent(t, pool, "Hackathon", 500, 10, eventDate(1))

		inserted, err := insertRegistration(t, pool, user.ID, event.ID, 500, model.PaymentStatusCompleted, "AB12CD34")
		require.NoError(t, err)
		assert.True(t, inserted)
		assertRowCount(t, pool, "registrations", 1)
	})

	t.Run("TicketCodeTakenReturnsFalse", func(t *testing.T) {
		pool := testutil.Postgres(t)
		u1 := createTestUser(t, pool, "asha@fest.io")
		u2 := createTestUser(t, pool, "ravi@fest.io")
		event := createTestEvent(t, pool, "Hackathon", 500, 10, eventDate(1))

		_, err := insertRegistration(t, pool, u1.ID, event.ID, 500, model.PaymentStatusCompleted, "SAME0001")
		require.NoError(t, err)

		inserted, err := insertRegistration(t, pool, u2.ID, event.ID, 500, model.PaymentStatusCompleted, "SAME0001")
		require.NoError(t, err)
		assert.False(t, inserted)
		assertRowCount(t, pool, "registrations", 1)
	})

	t.Run("DuplicateUserEvent", func(t *testing.T) {
		pool := testutil.Postgres(t)
		user := createTestUser(t, pool, "asha@fest.io")
		event := createTestEvent(t, pool, "Hackathon", 500, 10, eventDate(1))

		_, err := insertRegistration(t, pool, user.ID, event.ID, 500, model.PaymentStatusCompleted, "FIRST001")
		require.NoError(t, err)

		_, err = insertRegistration(t, pool, user.ID, event.ID, 500, model.PaymentStatusCompleted, "SECOND02")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)
		assertRowCount(t, pool, "registrations", 1)
	})

	t.Run("UnknownPaymentStatus", func(t *testing.T) {
		pool := testutil.Postgres(t)
		user := createTestUser(t, pool, "asha@fest.io")
		event := createTestEvent(t, pool, "Hackathon", 500, 10, eventDate(1))

		inserted, err := insertRegistration(t, pool, user.ID, event.ID, 500, model.PaymentStatus("refunded"), "REFUND01")
		assert.ErrorIs(t, err, apperrors.ErrInvalidPaymentStatus)
		assert.False(t, inserted)
		assertRowCount(t, pool, "registrations", 0)
	})
}

func TestRegistrationRepository_TxReads(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Postgres(t)
	repo := repository.NewRegistrationRepository(pool)
	user := createTestUser(t, pool, "asha@fest.io")
	other := createTestUser(t, pool, "ravi@fest.io")
	event := createTestEvent(t, pool, "Hackathon", 500, 10, eventDate(1))

	_, err := insertRegistration(t, pool, user.ID, event.ID, 500, model.PaymentStatusCompleted, "DONE0001")
	require.NoError(t, err)
	_, err = insertRegistration(t, pool, other.ID, event.ID, 500, model.PaymentStatusPending, "WAIT0001")
	require.NoError(t, err)

	err = database.NewTransactor(pool).WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		found, err := repo.FindByUserAndEvent(ctx, tx, user.ID, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "DONE0001", found.TicketCode)

		_, err = repo.FindByUserAndEvent(ctx, tx, user.ID, createTestEvent(t, pool, "Quiz", 0, 5, eventDate(2)).ID)
		assert.ErrorIs(t, err, apperrors.ErrRegistrationNotFound)

		// pending 不佔名額
		completed, err := repo.CountCompleted(ctx, tx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, completed)
		return nil
	})
	require.NoError(t, err)
}

func TestRegistrationRepository_Views(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Postgres(t)
	repo := repository.NewRegistrationRepository(pool)
	user := createTestUser(t, pool, "asha@fest.io")
	other := createTestUser(t, pool, "ravi@fest.io")
	hackathon := createTestEvent(t, pool, "Hackathon", 500, 10, eventDate(1))
	quiz := createTestEvent(t, pool, "Quiz", 0, 10, eventDate(5))

	_, err := insertRegistration(t, pool, user.ID, hackathon.ID, 500, model.PaymentStatusCompleted, "HACK0001")
	require.NoError(t, err)
	_, err = insertRegistration(t, pool, user.ID, quiz.ID, 0, model.PaymentStatusCompleted, "QUIZ0001")
	require.NoError(t, err)
	_, err = insertRegistration(t, pool, other.ID, hackathon.ID, 500, model.PaymentStatusCompleted, "HACK0002")
	require.NoError(t, err)

	t.Run("ListTicketsByUser", func(t *testing.T) {
		tickets, err := repo.ListTicketsByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, tickets, 2)
		assert.Equal(t, "HACK0001", tickets[0].TicketCode)
		require.NotNil(t, tickets[0].Event)
		assert.Equal(t, "Hackathon", tickets[0].Event.Name)
		assert.Equal(t, "QUIZ0001", tickets[1].TicketCode)
	})

	t.Run("ListByEvent", func(t *testing.T) {
		views, err := repo.ListByEvent(ctx, hackathon.ID)
		require.NoError(t, err)
		require.Len(t, views, 2)
		emails := []string{views[0].User.Email, views[1].User.Email}
		assert.ElementsMatch(t, []string{"asha@fest.io", "ravi@fest.io"}, emails)
	})

	t.Run("FindByTicketCode", func(t *testing.T) {
		view, err := repo.FindByTicketCode(ctx, "QUIZ0001")
		require.NoError(t, err)
		assert.Equal(t, user.ID, view.UserID)
		assert.Equal(t, "Quiz", view.Event.Name)

		_, err = repo.FindByTicketCode(ctx, "NONE0000")
		assert.ErrorIs(t, err, apperrors.ErrRegistrationNotFound)
	})
}
