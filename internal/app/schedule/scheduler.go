package schedule

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	feedssvc "staycal/internal/app/services/feeds"
	"staycal/internal/app/uow"
)

// PeriodicSync re-syncs every property that follows at least one
// enabled external calendar, on a cron schedule. The core itself stays
// request-driven; this runner is just the timer-driven caller of
// SyncAll.
type PeriodicSync struct {
	Spec   string
	Syncer *feedssvc.Syncer
	UoW    uow.UoWFactory
	Logger *slog.Logger

	cron *cron.Cron
}

// Start registers the cron entry and launches the scheduler. Returns
// an error for an invalid cron spec.
func (p *PeriodicSync) Start(ctx context.Context) error {
	p.cron = cron.New()
	_, err := p.cron.AddFunc(p.Spec, func() { p.runOnce(ctx) })
	if err != nil {
		return err
	}
	p.cron.Start()
	if p.Logger != nil {
		p.Logger.Info("periodic calendar sync scheduled", "spec", p.Spec)
	}
	return nil
}

// Stop halts the scheduler; running jobs finish first.
func (p *PeriodicSync) Stop() {
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
}

func (p *PeriodicSync) runOnce(ctx context.Context) {
	properties, err := p.propertiesToSync(ctx)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Error("periodic sync: cannot list properties", "error", err)
		}
		return
	}
	for _, propertyID := range properties {
		report, err := p.Syncer.SyncAll(ctx, propertyID)
		if err != nil {
			if p.Logger != nil {
				p.Logger.Error("periodic sync failed", "property_id", propertyID, "error", err)
			}
			continue
		}
		if p.Logger != nil {
			p.Logger.Info("periodic sync completed", "property_id", propertyID, "synced", report.SyncedCount, "failures", len(report.Failures))
		}
	}
}

func (p *PeriodicSync) propertiesToSync(ctx context.Context) ([]string, error) {
	unit, err := p.UoW.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	ctx = uow.BindContext(ctx, unit)
	defer unit.Rollback(ctx)
	return unit.Subscriptions().PropertiesWithEnabled(ctx)
}
