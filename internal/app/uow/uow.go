// Package uow is the transaction boundary port. A unit of work hands out the repositories
// that participate in it; the storage mode decides what a transaction means.
package uow

import (
	"context"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
)

type UnitOfWork interface {
	Properties() properties.Repository
	Reservations() reservations.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions tunes a unit. Read-only units neither take the write lock in memory mode nor
// request majority write concern in Mongo.
type TxOptions struct {
	ReadOnly bool
}
