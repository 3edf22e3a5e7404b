package service

import (
	"context"
	"errors"
	"math"
	"time"

	"fest-ticketing/internal/database"
	"fest-ticketing/internal/model"
	"fest-ticketing/internal/queue"
	"fest-ticketing/internal/repository"
	"fest-ticketing/internal/ticketcode"
	apperrors "fest-ticketing/pkg/app_errors"
	"fest-ticketing/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	maxTxAttempts   = 3
	maxCodeAttempts = 5
	publishTimeout  = 3 * time.Second
)

type RegistrationService interface {
	// 報名並出票：活動存在 → 未重複報名 → 金額相符 → 名額未滿
	CreateRegistration(ctx context.Context, identity model.Identity, req model.CreateRegistrationRequest) (*model.Registration, error)
	ListTicketsForUser(ctx context.Context, identity model.Identity) ([]*model.TicketView, error)
	ListRegistrationsForEvent(ctx context.Context, identity model.Identity, eventID uuid.UUID) ([]*model.EventRegistrationView, error)
	GetTicketByCode(ctx context.Context, identity model.Identity, code string) (*model.TicketView, error)
}

type RegistrationServiceImpl struct {
	tx            database.Transactor
	events        repository.EventRepository
	registrations repository.RegistrationRepository
	users         repository.UserRepository
	ticketQueue   queue.TicketQueue
	newCode       ticketcode.Generator
	log           *zap.Logger
}

func NewRegistrationService(
	tx database.Transactor,
	events repository.EventRepository,
	registrations repository.RegistrationRepository,
	users repository.UserRepository,
	ticketQueue queue.TicketQueue,
	newCode ticketcode.Generator,
) RegistrationService {
	if newCode == nil {
		newCode = ticketcode.Generate
	}
	return &RegistrationServiceImpl{
		tx:            tx,
		events:        events,
		registrations: registrations,
		users:         users,
		ticketQueue:   ticketQueue,
		newCode:       newCode,
		log:           logger.WithComponent("service"),
	}
}

func (s *RegistrationServiceImpl) CreateRegistration(ctx context.Context, identity model.Identity, req model.CreateRegistrationRequest) (*model.Registration, error) {
	if req.EventID == uuid.Nil {
		return nil, apperrors.Invalid("event_id is required")
	}
	if req.PaymentAmount == nil {
		return nil, apperrors.Invalid("payment_amount is required")
	}
	amount := *req.PaymentAmount
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return nil, apperrors.Invalid("payment_amount must be a non-negative number")
	}

	var (
		registration *model.Registration
		event        *model.Event
		err          error
	)
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		registration, event, err = s.register(ctx, identity.UserID, req.EventID, amount)
		if err == nil || !database.IsRetryable(err) {
			break
		}
		s.log.Warn("registration transaction conflict, retrying",
			zap.String("event_id", req.EventID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	if err != nil {
		if database.IsRetryable(err) {
			return nil, apperrors.ErrRetryExhausted
		}
		return nil, err
	}

	s.publishTicketIssued(ctx, registration, event)
	return registration, nil
}

// register runs one attempt in its own transaction; nothing is written unless it returns nil.
func (s *RegistrationServiceImpl) register(ctx context.Context, userID, eventID uuid.UUID, amount float64) (*model.Registration, *model.Event, error) {
	var (
		registration *model.Registration
		event        *model.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// 1. 鎖住活動列，同一活動的報名在此排隊
		ev, err := s.events.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}

		// 2. 重複報名
		_, err = s.registrations.FindByUserAndEvent(ctx, tx, userID, eventID)
		if err == nil {
			return apperrors.ErrAlreadyRegistered
		}
		if !errors.Is(err, apperrors.ErrRegistrationNotFound) {
			return err
		}

		// 3. 金額以分比對
		if model.ToCents(amount) != ev.PriceCents() {
			return apperrors.ErrAmountMismatch
		}

		// 4. 名額
		completed, err := s.registrations.CountCompleted(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if completed >= ev.MaxParticipants {
			return apperrors.ErrEventFull
		}

		// 5. 寫入；票號撞號時換一組重試
		for i := 0; i < maxCodeAttempts; i++ {
			code, err := s.newCode()
			if err != nil {
				return err
			}
			r := &model.Registration{
				ID:            uuid.New(),
				UserID:        userID,
				EventID:       eventID,
				PaymentAmount: ev.Price,
				PaymentStatus: model.PaymentStatusCompleted,
				TicketCode:    code,
			}
			inserted, err := s.registrations.Insert(ctx, tx, r)
			if err != nil {
				return err
			}
			if inserted {
				registration, event = r, ev
				return nil
			}
			s.log.Info("ticket code collision, regenerating", zap.Int("attempt", i+1))
		}
		return apperrors.ErrTicketCodeExhausted
	})
	if err != nil {
		return nil, nil, err
	}
	return registration, event, nil
}

// publishTicketIssued 在 commit 之後送出通知；失敗只記錄，不影響已完成的報名
func (s *RegistrationServiceImpl) publishTicketIssued(ctx context.Context, reg *model.Registration, event *model.Event) {
	if s.ticketQueue == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	msg := &model.TicketIssued{
		RegistrationID: reg.ID,
		TicketCode:     reg.TicketCode,
		UserID:         reg.UserID,
		EventID:        event.ID,
		EventName:      event.Name,
		EventDate:      event.Date,
		EventLocation:  event.Location,
		Amount:         reg.PaymentAmount,
		IssuedAt:       reg.CreatedAt,
	}
	if user, err := s.users.FindByID(ctx, reg.UserID); err == nil {
		msg.UserEmail = user.Email
		msg.UserName = user.FullName
	} else {
		s.log.Warn("load user for ticket notification failed", zap.String("user_id", reg.UserID.String()), zap.Error(err))
	}

	if err := s.ticketQueue.PublishTicketIssued(ctx, msg); err != nil {
		s.log.Error("publish ticket issued failed",
			zap.String("registration_id", reg.ID.String()),
			zap.String("ticket_code", reg.TicketCode),
			zap.Error(err))
	}
}

func (s *RegistrationServiceImpl) ListTicketsForUser(ctx context.Context, identity model.Identity) ([]*model.TicketView, error) {
	return s.registrations.ListTicketsByUser(ctx, identity.UserID)
}

func (s *RegistrationServiceImpl) ListRegistrationsForEvent(ctx context.Context, identity model.Identity, eventID uuid.UUID) ([]*model.EventRegistrationView, error) {
	if !identity.IsAdmin {
		return nil, apperrors.ErrForbidden
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.registrations.ListByEvent(ctx, eventID)
}

// GetTicketByCode 只回傳本人的票；管理員可查任何票。他人的票一律視為不存在
func (s *RegistrationServiceImpl) GetTicketByCode(ctx context.Context, identity model.Identity, code string) (*model.TicketView, error) {
	code = ticketcode.Normalize(code)
	if !ticketcode.Valid(code) {
		return nil, apperrors.ErrRegistrationNotFound
	}
	view, err := s.registrations.FindByTicketCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if view.UserID != identity.UserID && !identity.IsAdmin {
		return nil, apperrors.ErrRegistrationNotFound
	}
	return view, nil
}

