package export

import (
	"context"
	"errors"
	"time"
)

var ErrArtifactNotFound = errors.New("export: artifact not found")

// Artifact is the published outbound feed for one property. It is a
// pure function of the property's blocked-day set: every operation that
// touches blocked days recomputes it in the same unit of work, and it
// disappears when the set is empty.
type Artifact struct {
	PropertyID       string
	URL              string
	Filename         string
	FilePath         string
	TotalBlockedDays int
	UpdatedAt        time.Time
}

type Repository interface {
	ByProperty(ctx context.Context, propertyID string) (*Artifact, error)
	// Upsert creates or replaces the single artifact row of a property.
	Upsert(ctx context.Context, a Artifact) error
	// Delete removes the artifact; deleting an absent one is a no-op.
	Delete(ctx context.Context, propertyID string) error
}
