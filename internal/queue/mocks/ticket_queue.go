package mocks

import (
	"context"
	"testing"

	"fest-ticketing/internal/model"
	"fest-ticketing/internal/queue"

	"github.com/stretchr/testify/mock"
)

type TicketQueueMock struct {
	mock.Mock
}

func NewTicketQueueMock(t *testing.T) *TicketQueueMock {
	m := &TicketQueueMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TicketQueueMock) PublishTicketIssued(ctx context.Context, msg *model.TicketIssued) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *TicketQueueMock) SubscribeTicketIssued(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}

func (m *TicketQueueMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
