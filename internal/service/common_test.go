package service_test

import (
	"context"

	"fest-ticketing/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// inlineTx runs fn without a database; repository mocks receive a nil tx.
type inlineTx struct {
	calls int
}

func (f *inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	f.calls++
	return fn(ctx, nil)
}

var (
	adminIdentity = model.Identity{UserID: uuid.MustParse("a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"), IsAdmin: true}
	userIdentity  = model.Identity{UserID: uuid.MustParse("b1ffcd88-8d1a-4de7-aa5c-5aa8ac270b22")}
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }
