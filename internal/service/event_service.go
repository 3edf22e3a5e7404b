package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"fest-ticketing/internal/cache"
	"fest-ticketing/internal/database"
	"fest-ticketing/internal/model"
	"fest-ticketing/internal/repository"
	apperrors "fest-ticketing/pkg/app_errors"
	"fest-ticketing/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// NUMERIC(10,2) upper bound
const maxPrice = 99999999.99

type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, identity model.Identity, req model.CreateEventRequest) (*model.Event, error)
	Update(ctx context.Context, identity model.Identity, id uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
	// Delete 有任何報名紀錄時拒絕刪除
	Delete(ctx context.Context, identity model.Identity, id uuid.UUID) error
}

type EventServiceImpl struct {
	tx            database.Transactor
	repo          repository.EventRepository
	registrations repository.RegistrationRepository
	cache         cache.EventCache
	log           *zap.Logger
}

func NewEventService(tx database.Transactor, repo repository.EventRepository, registrations repository.RegistrationRepository, eventCache cache.EventCache) EventService {
	if eventCache == nil {
		eventCache = cache.NoopEventCache{}
	}
	return &EventServiceImpl{
		tx:            tx,
		repo:          repo,
		registrations: registrations,
		cache:         eventCache,
		log:           logger.WithComponent("service"),
	}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	// generation 要在讀 DB 之前取得，期間若有異動，SetList 會放棄寫入
	events, generation, err := s.cache.GetList(ctx)
	if err == nil {
		return events, nil
	}
	cacheable := errors.Is(err, cache.ErrCacheMiss)
	if !cacheable {
		s.log.Warn("event cache read failed", zap.Error(err))
	}

	events, err = s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if !cacheable {
		return events, nil
	}
	if err := s.cache.SetList(ctx, generation, events); err != nil {
		s.log.Warn("event cache write failed", zap.Error(err))
	}
	return events, nil
}

func (s *EventServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *EventServiceImpl) Create(ctx context.Context, identity model.Identity, req model.CreateEventRequest) (*model.Event, error) {
	if !identity.IsAdmin {
		return nil, apperrors.ErrForbidden
	}
	event := &model.Event{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Date:            req.Date,
		Location:        strings.TrimSpace(req.Location),
		MaxParticipants: req.MaxParticipants,
		ImageURL:        req.ImageURL,
		CreatedBy:       &identity.UserID,
	}
	if req.Price == nil {
		return nil, apperrors.Invalid("price is required")
	}
	event.Price = *req.Price

	if event.Name == "" {
		return nil, apperrors.Invalid("name is required")
	}
	if event.Date.IsZero() {
		return nil, apperrors.Invalid("date is required")
	}
	if err := validatePrice(event.Price); err != nil {
		return nil, err
	}
	if event.MaxParticipants <= 0 {
		return nil, apperrors.Invalid("max_participants must be greater than 0")
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *EventServiceImpl) Update(ctx context.Context, identity model.Identity, id uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	if !identity.IsAdmin {
		return nil, apperrors.ErrForbidden
	}
	if params.IsEmpty() {
		return nil, apperrors.Invalid("no fields to update")
	}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, apperrors.Invalid("name must not be empty")
		}
		params.Name = &name
	}
	if params.Price != nil {
		if err := validatePrice(*params.Price); err != nil {
			return nil, err
		}
	}
	if params.MaxParticipants != nil && *params.MaxParticipants <= 0 {
		return nil, apperrors.Invalid("max_participants must be greater than 0")
	}

	var updated *model.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := s.repo.FindByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		if params.MaxParticipants != nil {
			completed, err := s.registrations.CountCompleted(ctx, tx, id)
			if err != nil {
				return err
			}
			if *params.MaxParticipants < completed {
				return apperrors.ErrCapacityBelowRegistrations
			}
		}
		var err error
		updated, err = s.repo.Update(ctx, tx, id, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *EventServiceImpl) Delete(ctx context.Context, identity model.Identity, id uuid.UUID) error {
	if !identity.IsAdmin {
		return apperrors.ErrForbidden
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// 與報名流程相同的列鎖，避免刪除與報名交錯
		if _, err := s.repo.FindByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		count, err := s.repo.CountRegistrations(ctx, tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrEventHasRegistrations
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if database.PgErrorCode(err) == database.CodeForeignKeyViolation {
		return apperrors.ErrEventHasRegistrations
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *EventServiceImpl) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("event cache invalidate failed", zap.Error(err))
	}
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return apperrors.Invalid("price must be a non-negative number")
	}
	if price > maxPrice {
		return apperrors.Invalid("price is too large")
	}
	return nil
}
