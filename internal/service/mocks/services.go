package mocks

import (
	"context"
	"testing"

	"fest-ticketing/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type AuthServiceMock struct {
	mock.Mock
}

func NewAuthServiceMock(t *testing.T) *AuthServiceMock {
	m := &AuthServiceMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AuthServiceMock) SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *AuthServiceMock) SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *AuthServiceMock) VerifyToken(ctx context.Context, token string) (model.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Identity), args.Error(1)
}

func (m *AuthServiceMock) Me(ctx context.Context, identity model.Identity) (*model.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type EventServiceMock struct {
	mock.Mock
}

func NewEventServiceMock(t *testing.T) *EventServiceMock {
	m := &EventServiceMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EventServiceMock) List(ctx context.Context) ([]*model.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *EventServiceMock) Get(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Create(ctx context.Context, identity model.Identity, req model.CreateEventRequest) (*model.Event, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Update(ctx context.Context, identity model.Identity, id uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	args := m.Called(ctx, identity, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Delete(ctx context.Context, identity model.Identity, id uuid.UUID) error {
	args := m.Called(ctx, identity, id)
	return args.Error(0)
}

type RegistrationServiceMock struct {
	mock.Mock
}

func NewRegistrationServiceMock(t *testing.T) *RegistrationServiceMock {
	m := &RegistrationServiceMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *RegistrationServiceMock) CreateRegistration(ctx context.Context, identity model.Identity, req model.CreateRegistrationRequest) (*model.Registration, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *RegistrationServiceMock) ListTicketsForUser(ctx context.Context, identity model.Identity) ([]*model.TicketView, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TicketView), args.Error(1)
}

func (m *RegistrationServiceMock) ListRegistrationsForEvent(ctx context.Context, identity model.Identity, eventID uuid.UUID) ([]*model.EventRegistrationView, error) {
	args := m.Called(ctx, identity, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EventRegistrationView), args.Error(1)
}

func (m *RegistrationServiceMock) GetTicketByCode(ctx context.Context, identity model.Identity, code string) (*model.TicketView, error) {
	args := m.Called(ctx, identity, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketView), args.Error(1)
}

type StatsServiceMock struct {
	mock.Mock
}

func NewStatsServiceMock(t *testing.T) *StatsServiceMock {
	m := &StatsServiceMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *StatsServiceMock) GetAdminStats(ctx context.Context, identity model.Identity) (*model.AdminStats, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminStats), args.Error(1)
}
