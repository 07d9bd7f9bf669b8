package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	domainexport "staycal/internal/domain/export"
	domainfeeds "staycal/internal/domain/feeds"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	BlockedDatesRepo  domainavailability.Store
	SubscriptionsRepo domainfeeds.Repository
	ExportsRepo       domainexport.Repository
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:       session,
		blocked:       f.BlockedDatesRepo,
		subscriptions: f.SubscriptionsRepo,
		exports:       f.ExportsRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	blocked       domainavailability.Store
	subscriptions domainfeeds.Repository
	exports       domainexport.Repository
}

func (u *Unit) BlockedDates() domainavailability.Store { return u.blocked }

func (u *Unit) Subscriptions() domainfeeds.Repository { return u.subscriptions }

func (u *Unit) Exports() domainexport.Repository { return u.exports }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
