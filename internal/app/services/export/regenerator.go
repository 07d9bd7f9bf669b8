package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"staycal/internal/app/policies"
	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	domainexport "staycal/internal/domain/export"
)

var ErrBuilderRequired = errors.New("export: feed builder required")

// FeedBuilder renders the blocked-day set of a property into the
// outbound feed payload. The output must be deterministic for a given
// row set.
type FeedBuilder interface {
	Build(propertyID string, rows []domainavailability.BlockedDate) ([]byte, error)
}

// Regenerator recomputes the published feed of a property from its
// current blocked-day set. It is the mandatory last step of every
// mutating calendar operation and runs inside the caller's unit of
// work so the artifact row can never go stale relative to the days
// that produced it.
type Regenerator struct {
	Builder   FeedBuilder
	Publisher policies.FeedPublisher
	Logger    *slog.Logger
	Now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Regenerate rebuilds and republishes the feed of one property. It
// returns nil when the blocked-day set is empty, in which case any
// existing artifact has been removed instead.
//
// Regeneration for the same property is serialized: two concurrent
// operations racing on the artifact row would otherwise interleave
// their read-modify-write.
func (r *Regenerator) Regenerate(ctx context.Context, unit uow.UnitOfWork, propertyID string) (*domainexport.Artifact, error) {
	if r.Builder == nil {
		return nil, ErrBuilderRequired
	}
	lock := r.propertyLock(propertyID)
	lock.Lock()
	defer lock.Unlock()

	rows, err := unit.BlockedDates().ListActive(ctx, propertyID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("export: list blocked days: %w", err)
	}

	if len(rows) == 0 {
		return nil, r.retire(ctx, unit, propertyID)
	}

	content, err := r.Builder.Build(propertyID, rows)
	if err != nil {
		return nil, fmt.Errorf("export: build feed: %w", err)
	}

	filename := fmt.Sprintf("property-%s.ics", propertyID)
	var publicURL, filePath string
	if r.Publisher != nil {
		publicURL, filePath, err = r.Publisher.Publish(ctx, filename, bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("export: publish feed: %w", err)
		}
	}

	artifact := domainexport.Artifact{
		PropertyID:       propertyID,
		URL:              publicURL,
		Filename:         filename,
		FilePath:         filePath,
		TotalBlockedDays: len(rows),
		UpdatedAt:        r.now(),
	}
	if err := unit.Exports().Upsert(ctx, artifact); err != nil {
		return nil, fmt.Errorf("export: upsert artifact: %w", err)
	}
	return &artifact, nil
}

// retire removes the artifact of an always-available property. An
// empty feed is never published.
func (r *Regenerator) retire(ctx context.Context, unit uow.UnitOfWork, propertyID string) error {
	existing, err := unit.Exports().ByProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, domainexport.ErrArtifactNotFound) {
			return nil
		}
		return fmt.Errorf("export: load artifact: %w", err)
	}
	if err := unit.Exports().Delete(ctx, propertyID); err != nil {
		return fmt.Errorf("export: delete artifact: %w", err)
	}
	if r.Publisher != nil && existing.FilePath != "" {
		if err := r.Publisher.Unpublish(ctx, existing.FilePath); err != nil && r.Logger != nil {
			r.Logger.Warn("stale export file left behind", "property_id", propertyID, "path", existing.FilePath, "error", err)
		}
	}
	return nil
}

func (r *Regenerator) propertyLock(propertyID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := r.locks[propertyID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[propertyID] = lock
	}
	return lock
}

func (r *Regenerator) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
