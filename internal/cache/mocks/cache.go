package mocks

import (
	"context"
	"testing"

	"fest-ticketing/internal/cache"
	"fest-ticketing/internal/model"

	"github.com/stretchr/testify/mock"
)

type EventCacheMock struct {
	mock.Mock
}

func NewEventCacheMock(t *testing.T) *EventCacheMock {
	m := &EventCacheMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EventCacheMock) GetList(ctx context.Context) ([]*model.Event, int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Event), args.Get(1).(int64), args.Error(2)
}

func (m *EventCacheMock) SetList(ctx context.Context, generation int64, events []*model.Event) error {
	args := m.Called(ctx, generation, events)
	return args.Error(0)
}

func (m *EventCacheMock) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type RateLimiterMock struct {
	mock.Mock
}

func NewRateLimiterMock(t *testing.T) *RateLimiterMock {
	m := &RateLimiterMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *RateLimiterMock) Allow(ctx context.Context, key string) (cache.Decision, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(cache.Decision), args.Error(1)
}
