package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fest-ticketing/internal/cache"
	cacheMocks "fest-ticketing/internal/cache/mocks"
	"fest-ticketing/internal/model"
	repoMocks "fest-ticketing/internal/repository/mocks"
	"fest-ticketing/internal/service"
	"fest-ticketing/internal/testutil"
	apperrors "fest-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupEventService(t *testing.T) (service.EventService, *repoMocks.EventRepositoryMock, *repoMocks.RegistrationRepositoryMock, *cacheMocks.EventCacheMock) {
	events := repoMocks.NewEventRepositoryMock(t)
	registrations := repoMocks.NewRegistrationRepositoryMock(t)
	eventCache := cacheMocks.NewEventCacheMock(t)
	return service.NewEventService(&inlineTx{}, events, registrations, eventCache), events, registrations, eventCache
}

func TestEventService_List(t *testing.T) {
	ctx := context.Background()
	listed := []*model.Event{{ID: uuid.New(), Name: "Hackathon"}}

	t.Run("CacheHit", func(t *testing.T) {
		svc, _, _, eventCache := setupEventService(t)
		eventCache.On("GetList", ctx).Return(listed, int64(0), nil).Once()

		got, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, listed, got)
	})

	t.Run("CacheMissLoadsAndFills", func(t *testing.T) {
		svc, events, _, eventCache := setupEventService(t)
		eventCache.On("GetList", ctx).Return(nil, int64(7), cache.ErrCacheMiss).Once()
		events.On("List", ctx).Return(listed, nil).Once()
		// 寫回時帶著讀 DB 之前的 generation
		eventCache.On("SetList", ctx, int64(7), listed).Return(nil).Once()

		got, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, listed, got)
	})

	t.Run("CacheWriteErrorIsIgnored", func(t *testing.T) {
		svc, events, _, eventCache := setupEventService(t)
		eventCache.On("GetList", ctx).Return(nil, int64(0), cache.ErrCacheMiss).Once()
		events.On("List", ctx).Return(listed, nil).Once()
		eventCache.On("SetList", ctx, int64(0), listed).Return(errors.New("redis down")).Once()

		got, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("CacheReadErrorSkipsFill", func(t *testing.T) {
		svc, events, _, eventCache := setupEventService(t)
		eventCache.On("GetList", ctx).Return(nil, int64(0), errors.New("redis down")).Once()
		events.On("List", ctx).Return(listed, nil).Once()

		got, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		eventCache.AssertNotCalled(t, "SetList", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestEventService_List_updateDuringLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	rdb := testutil.Redis(t)
	eventCache := cache.NewRedisEventCache(rdb, testutil.KeyPrefix(t, rdb), time.Minute)
	events := repoMocks.NewEventRepositoryMock(t)
	registrations := repoMocks.NewRegistrationRepositoryMock(t)
	svc := service.NewEventService(&inlineTx{}, events, registrations, eventCache)

	id := uuid.New()
	before := []*model.Event{{ID: id, Name: "Hackathon", Price: 500}}
	after := []*model.Event{{ID: id, Name: "Hackathon", Price: 600}}

	loading := make(chan struct{})
	release := make(chan struct{})
	// 第一次 List 讀到舊價格後卡住，等 Update commit 並失效快取
	events.On("List", mock.Anything).Return(before, nil).Run(func(mock.Arguments) {
		close(loading)
		<-release
	}).Once()
	events.On("FindByIDForUpdate", mock.Anything, mock.Anything, id).Return(before[0], nil).Once()
	events.On("Update", mock.Anything, mock.Anything, id, model.UpdateEventParams{Price: floatPtr(600)}).
		Return(after[0], nil).Once()
	events.On("List", mock.Anything).Return(after, nil).Once()

	stale := make(chan []*model.Event, 1)
	go func() {
		got, err := svc.List(ctx)
		assert.NoError(t, err)
		stale <- got
	}()

	<-loading
	_, err := svc.Update(ctx, adminIdentity, id, model.UpdateEventParams{Price: floatPtr(600)})
	require.NoError(t, err)
	close(release)
	assert.Equal(t, 500.0, (<-stale)[0].Price)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 600.0, got[0].Price)

	// 新資料已寫入快取，之後的讀取不再打 DB
	got, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 600.0, got[0].Price)
}

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()
	req := model.CreateEventRequest{
		Name:            "Hackathon",
		Date:            time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Location:        "Main Hall",
		Price:           floatPtr(500),
		MaxParticipants: 100,
	}

	t.Run("Success", func(t *testing.T) {
		svc, events, _, eventCache := setupEventService(t)
		events.On("Create", ctx, mock.MatchedBy(func(e *model.Event) bool {
			return e.Name == "Hackathon" && e.Price == 500 && *e.CreatedBy == adminIdentity.UserID
		})).Return(&model.Event{ID: uuid.New(), Name: "Hackathon"}, nil).Once()
		eventCache.On("Invalidate", mock.Anything).Return(nil).Once()

		created, err := svc.Create(ctx, adminIdentity, req)
		require.NoError(t, err)
		assert.Equal(t, "Hackathon", created.Name)
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc, _, _, _ := setupEventService(t)
		_, err := svc.Create(ctx, userIdentity, req)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		svc, _, _, _ := setupEventService(t)

		bad := req
		bad.Price = floatPtr(-1)
		_, err := svc.Create(ctx, adminIdentity, bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		bad = req
		bad.MaxParticipants = 0
		_, err = svc.Create(ctx, adminIdentity, bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		bad = req
		bad.Name = "   "
		_, err = svc.Create(ctx, adminIdentity, bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestEventService_Update(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	event := &model.Event{ID: id, Name: "Hackathon", Price: 500, MaxParticipants: 10}

	t.Run("LoweringCapacityBelowCompletedIsRejected", func(t *testing.T) {
		svc, events, registrations, _ := setupEventService(t)
		events.On("FindByIDForUpdate", ctx, mock.Anything, id).Return(event, nil).Once()
		registrations.On("CountCompleted", ctx, mock.Anything, id).Return(5, nil).Once()

		_, err := svc.Update(ctx, adminIdentity, id, model.UpdateEventParams{MaxParticipants: intPtr(4)})
		assert.ErrorIs(t, err, apperrors.ErrCapacityBelowRegistrations)
	})

	t.Run("CapacityEqualToCompletedIsAllowed", func(t *testing.T) {
		svc, events, registrations, eventCache := setupEventService(t)
		params := model.UpdateEventParams{MaxParticipants: intPtr(5)}
		events.On("FindByIDForUpdate", ctx, mock.Anything, id).Return(event, nil).Once()
		registrations.On("CountCompleted", ctx, mock.Anything, id).Return(5, nil).Once()
		events.On("Update", ctx, mock.Anything, id, params).Return(&model.Event{ID: id, MaxParticipants: 5}, nil).Once()
		eventCache.On("Invalidate", mock.Anything).Return(nil).Once()

		updated, err := svc.Update(ctx, adminIdentity, id, params)
		require.NoError(t, err)
		assert.Equal(t, 5, updated.MaxParticipants)
	})

	t.Run("NameOnlySkipsCount", func(t *testing.T) {
		svc, events, _, eventCache := setupEventService(t)
		events.On("FindByIDForUpdate", ctx, mock.Anything, id).Return(event, nil).Once()
		events.On("Update", ctx, mock.Anything, id, model.UpdateEventParams{Name: strPtr("Hack Night")}).
			Return(&model.Event{ID: id, Name: "Hack Night"}, nil).Once()
		eventCache.On("Invalidate", mock.Anything).Return(errors.New("redis down")).Once()

		updated, err := svc.Update(ctx, adminIdentity, id, model.UpdateEventParams{Name: strPtr("  Hack Night ")})
		require.NoError(t, err)
		assert.Equal(t, "Hack Night", updated.Name)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, events, _, _ := setupEventService(t)
		events.On("FindByIDForUpdate", ctx, mock.Anything, id).Return(nil, apperrors.ErrEventNotFound).Once()

		_, err := svc.Update(ctx, adminIdentity, id, model.UpdateEventParams{Price: floatPtr(1)})
		assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})

	t.Run("EmptyOrInvalid", func(t *testing.T) {
		svc, _, _, _ := setupEventService(t)

		_, err := svc.Update(ctx, adminIdentity, id, model.UpdateEventParams{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, err = svc.Update(ctx, adminIdentity, id, model.UpdateEventParams{MaxParticipants: intPtr(0)})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, err = svc.Update(ctx, userIdentity, id, model.UpdateEventParams{Name: strPtr("x")})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestEventService_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	event := &model.Event{ID: id}

	t.Run("Success", func(t *testing.T) {
		svc, events, _, eventCache := setupEventService(t)
		events.On("FindByIDForUpdate", ctx, mock.Anything, id).Return(event, nil).Once()
		events.On("CountRegistrations", ctx, mock.Anything, id).Return(0, nil).Once()
		events.On("Delete", ctx, mock.Anything, id).Return(nil).Once()
		eventCache.On("Invalidate", mock.Anything).Return(nil).Once()

		require.NoError(t, svc.Delete(ctx, adminIdentity, id))
	})

	t.Run("HasRegistrations", func(t *testing.T) {
		svc, events, _, _ := setupEventService(t)
		events.On("FindByIDForUpdate", ctx, mock.Anything, id).Return(event, nil).Once()
		events.On("CountRegistrations", ctx, mock.Anything, id).Return(2, nil).Once()

		err := svc.Delete(ctx, adminIdentity, id)
		assert.ErrorIs(t, err, apperrors.ErrEventHasRegistrations)
	})

	t.Run("ForeignKeyViolationMapsToConflict", func(t *testing.T) {
		svc, events, _, _ := setupEventService(t)
		events.On("FindByIDForUpdate", ctx, mock.Anything, id).Return(event, nil).Once()
		events.On("CountRegistrations", ctx, mock.Anything, id).Return(0, nil).Once()
		events.On("Delete", ctx, mock.Anything, id).Return(&pgconn.PgError{Code: "23503"}).Once()

		err := svc.Delete(ctx, adminIdentity, id)
		assert.ErrorIs(t, err, apperrors.ErrEventHasRegistrations)
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc, _, _, _ := setupEventService(t)
		assert.ErrorIs(t, svc.Delete(ctx, userIdentity, id), apperrors.ErrForbidden)
	})
}
