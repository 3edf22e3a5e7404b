package repository

import (
	"context"
	"errors"
	"fmt"

	"fest-ticketing/internal/database"
	"fest-ticketing/internal/model"
	apperrors "fest-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userEventConstraint = "registrations_user_event_key"

type RegistrationRepository interface {
	ListTicketsByUser(ctx context.Context, userID uuid.UUID) ([]*model.TicketView, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.EventRegistrationView, error)
	FindByTicketCode(ctx context.Context, code string) (*model.TicketView, error)

	// Transaction methods
	FindByUserAndEvent(ctx context.Context, tx pgx.Tx, userID, eventID uuid.UUID) (*model.Registration, error)
	CountCompleted(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (int, error)
	// Insert returns false without error when the ticket code is already taken.
	Insert(ctx context.Context, tx pgx.Tx, registration *model.Registration) (bool, error)
}

type RegistrationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &RegistrationRepositoryImpl{
		pool: pool,
	}
}

const registrationColumns = `r.id, r.user_id, r.event_id, r.payment_amount, r.payment_status, r.ticket_code, r.created_at`

func registrationDest(reg *model.Registration) []interface{} {
	return []interface{}{
		&reg.ID,
		&reg.UserID,
		&reg.EventID,
		&reg.PaymentAmount,
		&reg.PaymentStatus,
		&reg.TicketCode,
		&reg.CreatedAt,
	}
}

func eventDest(event *model.Event) []interface{} {
	return []interface{}{
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Date,
		&event.Location,
		&event.Price,
		&event.MaxParticipants,
		&event.ImageURL,
		&event.CreatedBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	}
}

const ticketViewQuery = `
	SELECT ` + registrationColumns + `,
		e.id, e.name, e.description, e.date, e.location, e.price, e.max_participants,
		e.image_url, e.created_by, e.created_at, e.updated_at
	FROM registrations r
	JOIN events e ON e.id = r.event_id
`

func scanTicketView(row pgx.Row) (*model.TicketView, error) {
	view := &model.TicketView{Event: &model.Event{}}
	dest := append(registrationDest(&view.Registration), eventDest(view.Event)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return view, nil
}

func (r *RegistrationRepositoryImpl) ListTicketsByUser(ctx context.Context, userID uuid.UUID) ([]*model.TicketView, error) {
	query := ticketViewQuery + ` WHERE r.user_id = $1 ORDER BY r.created_at ASC, r.id ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*model.TicketView, 0)
	for rows.Next() {
		view, err := scanTicketView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, view)
	}
	return tickets, rows.Err()
}

func (r *RegistrationRepositoryImpl) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.EventRegistrationView, error) {
	query := `
		SELECT ` + registrationColumns + `,
			u.id, u.full_name, u.email, u.phone, u.college
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.created_at ASC, r.id ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event registrations: %w", err)
	}
	defer rows.Close()

	views := make([]*model.EventRegistrationView, 0)
	for rows.Next() {
		view := &model.EventRegistrationView{User: &model.UserSummary{}}
		dest := append(registrationDest(&view.Registration),
			&view.User.ID, &view.User.FullName, &view.User.Email, &view.User.Phone, &view.User.College)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

func (r *RegistrationRepositoryImpl) FindByTicketCode(ctx context.Context, code string) (*model.TicketView, error) {
	view, err := scanTicketView(r.pool.QueryRow(ctx, ticketViewQuery+` WHERE r.ticket_code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return view, nil
}

func (r *RegistrationRepositoryImpl) FindByUserAndEvent(ctx context.Context, tx pgx.Tx, userID, eventID uuid.UUID) (*model.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations r WHERE r.user_id = $1 AND r.event_id = $2`

	var reg model.Registration
	if err := tx.QueryRow(ctx, query, userID, eventID).Scan(registrationDest(&reg)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepositoryImpl) CountCompleted(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND payment_status = $2`

	var count int
	if err := tx.QueryRow(ctx, query, eventID, model.PaymentStatusCompleted).Scan(&count); err != nil {
		return 0, fmt.Errorf("count completed registrations: %w", err)
	}
	return count, nil
}

func (r *RegistrationRepositoryImpl) Insert(ctx context.Context, tx pgx.Tx, registration *model.Registration) (bool, error) {
	if !registration.PaymentStatus.IsValid() {
		return false, apperrors.ErrInvalidPaymentStatus
	}
	if registration.ID == uuid.Nil {
		registration.ID = uuid.New()
	}
	// 只吞掉票號衝突；(user_id, event_id) 衝突仍會以 23505 回報
	query := `
		INSERT INTO registrations (id, user_id, event_id, payment_amount, payment_status, ticket_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticket_code) DO NOTHING
		RETURNING created_at
	`
	err := tx.QueryRow(ctx, query,
		registration.ID, registration.UserID, registration.EventID,
		registration.PaymentAmount, registration.PaymentStatus, registration.TicketCode,
	).Scan(&registration.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if database.PgErrorCode(err) == database.CodeUniqueViolation &&
			database.ConstraintName(err) == userEventConstraint {
			return false, apperrors.ErrAlreadyRegistered
		}
		return false, fmt.Errorf("insert registration: %w", err)
	}
	return true, nil
}
