package uow

import (
	"context"

	domainavailability "staycal/internal/domain/availability"
	domainexport "staycal/internal/domain/export"
	domainfeeds "staycal/internal/domain/feeds"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	BlockedDates() domainavailability.Store
	Subscriptions() domainfeeds.Repository
	Exports() domainexport.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
