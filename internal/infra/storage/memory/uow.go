package memory

import (
	"context"
	"errors"
	"time"

	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	domainexport "staycal/internal/domain/export"
	domainfeeds "staycal/internal/domain/feeds"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires the in-memory repositories into a unit-of-work
// boundary. Writes apply immediately; Rollback restores the snapshot
// taken at Begin. There is no isolation between concurrent units —
// good enough for tests and single-user dev mode.
type Factory struct {
	BlockedDatesRepo  *BlockedDateStore
	SubscriptionsRepo *SubscriptionRepository
	ExportsRepo       *ExportRepository
}

// NewFactory builds a factory with fresh empty repositories.
func NewFactory() Factory {
	return Factory{
		BlockedDatesRepo:  NewBlockedDateStore(),
		SubscriptionsRepo: NewSubscriptionRepository(),
		ExportsRepo:       NewExportRepository(),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BlockedDatesRepo == nil || f.SubscriptionsRepo == nil || f.ExportsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	unit := &Unit{
		blocked:       f.BlockedDatesRepo,
		subscriptions: f.SubscriptionsRepo,
		exports:       f.ExportsRepo,
	}
	if !opts.ReadOnly {
		unit.blockedSnap = f.BlockedDatesRepo.snapshot()
		unit.subsSnap = f.SubscriptionsRepo.snapshot()
		unit.exportsSnap = f.ExportsRepo.snapshot()
	}
	return unit, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	blocked       *BlockedDateStore
	subscriptions *SubscriptionRepository
	exports       *ExportRepository

	blockedSnap map[string]map[time.Time]domainavailability.BlockedDate
	subsSnap    map[string]domainfeeds.Subscription
	exportsSnap map[string]domainexport.Artifact

	done bool
}

func (u *Unit) BlockedDates() domainavailability.Store { return u.blocked }
func (u *Unit) Subscriptions() domainfeeds.Repository  { return u.subscriptions }
func (u *Unit) Exports() domainexport.Repository       { return u.exports }

func (u *Unit) Commit(ctx context.Context) error {
	u.done = true
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if u.blockedSnap != nil {
		u.blocked.restore(u.blockedSnap)
	}
	if u.subsSnap != nil {
		u.subscriptions.restore(u.subsSnap)
	}
	if u.exportsSnap != nil {
		u.exports.restore(u.exportsSnap)
	}
	return nil
}
