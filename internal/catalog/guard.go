package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/models"
)

// ErrLookupTimeout is returned when a catalog lookup exceeds its deadline
var ErrLookupTimeout = errors.New("catalog lookup timed out")

// IsUnavailable reports whether err means the catalog could not answer in time
// (timeout or open breaker), as opposed to a definite answer
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrLookupTimeout) || errors.Is(err, ErrBreakerOpen)
}

// Guarded wraps a Catalog so every lookup runs under its own deadline and a
// shared circuit breaker. Lineup loads are passed through unguarded since they
// hit the local schedule tables, not the content backends.
type Guarded struct {
	inner   Catalog
	timeout time.Duration
	breaker *Breaker
}

// NewGuarded wraps inner with a per-lookup timeout and breaker
func NewGuarded(inner Catalog, timeout time.Duration, breaker *Breaker) *Guarded {
	return &Guarded{inner: inner, timeout: timeout, breaker: breaker}
}

var _ Catalog = (*Guarded)(nil)

// Breaker exposes the breaker for health reporting
func (g *Guarded) Breaker() *Breaker {
	return g.breaker
}

// guard runs fn under the guard's deadline. A lookup still running at the deadline
// is abandoned; fn must honour ctx to release its resources.
func guard[T any](ctx context.Context, g *Guarded, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := g.breaker.Allow(); err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn(lookupCtx)
		done <- result{val: val, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			g.breaker.Record(ErrLookupTimeout)
			return zero, fmt.Errorf("%s: %w", op, ErrLookupTimeout)
		}
		g.breaker.Record(backendFailure(res.err))
		if res.err != nil {
			return zero, fmt.Errorf("%s: %w", op, res.err)
		}
		return res.val, nil
	case <-lookupCtx.Done():
		if ctx.Err() != nil {
			// Caller cancelled; not the backend's fault
			return zero, ctx.Err()
		}
		g.breaker.Record(ErrLookupTimeout)
		return zero, fmt.Errorf("%s: %w", op, ErrLookupTimeout)
	}
}

// backendFailure filters out definite answers so that only backend trouble trips the breaker
func backendFailure(err error) error {
	if err == nil || db.IsNotFound(err) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// GetGroupingsByIDs implements ProgramCatalog
func (g *Guarded) GetGroupingsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProgramGrouping, error) {
	return guard(ctx, g, "get groupings", func(ctx context.Context) (map[uuid.UUID]*models.ProgramGrouping, error) {
		return g.inner.GetGroupingsByIDs(ctx, ids)
	})
}

// GetChildCounts implements ProgramCatalog
func (g *Guarded) GetChildCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return guard(ctx, g, "get child counts", func(ctx context.Context) (map[uuid.UUID]int, error) {
		return g.inner.GetChildCounts(ctx, ids)
	})
}

// GetChildren implements ProgramCatalog
func (g *Guarded) GetChildren(ctx context.Context, id uuid.UUID, childType ChildType, page PageRequest) (*ChildPage, error) {
	return guard(ctx, g, "get children", func(ctx context.Context) (*ChildPage, error) {
		return g.inner.GetChildren(ctx, id, childType, page)
	})
}

// GetProgramsByIDs implements ProgramCatalog
func (g *Guarded) GetProgramsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Program, error) {
	return guard(ctx, g, "get programs", func(ctx context.Context) (map[uuid.UUID]*models.Program, error) {
		return g.inner.GetProgramsByIDs(ctx, ids)
	})
}

// GetMediaSourcesByIDs implements ProgramCatalog
func (g *Guarded) GetMediaSourcesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaSource, error) {
	return guard(ctx, g, "get media sources", func(ctx context.Context) (map[uuid.UUID]*models.MediaSource, error) {
		return g.inner.GetMediaSourcesByIDs(ctx, ids)
	})
}

// GetLibrariesByIDs implements ProgramCatalog
func (g *Guarded) GetLibrariesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaLibrary, error) {
	return guard(ctx, g, "get libraries", func(ctx context.Context) (map[uuid.UUID]*models.MediaLibrary, error) {
		return g.inner.GetLibrariesByIDs(ctx, ids)
	})
}

// GetFillerListsByIDs implements FillerProvider
func (g *Guarded) GetFillerListsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.FillerList, error) {
	return guard(ctx, g, "get filler lists", func(ctx context.Context) (map[uuid.UUID]*models.FillerList, error) {
		return g.inner.GetFillerListsByIDs(ctx, ids)
	})
}

// GetFillerListContentCounts implements FillerProvider
func (g *Guarded) GetFillerListContentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return guard(ctx, g, "get filler list counts", func(ctx context.Context) (map[uuid.UUID]int, error) {
		return g.inner.GetFillerListContentCounts(ctx, ids)
	})
}

// GetFillerListContents implements FillerProvider
func (g *Guarded) GetFillerListContents(ctx context.Context, id uuid.UUID) ([]*models.Program, error) {
	return guard(ctx, g, "get filler list contents", func(ctx context.Context) ([]*models.Program, error) {
		return g.inner.GetFillerListContents(ctx, id)
	})
}

// GetCustomShowsByIDs implements CustomShowProvider
func (g *Guarded) GetCustomShowsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.CustomShow, error) {
	return guard(ctx, g, "get custom shows", func(ctx context.Context) (map[uuid.UUID]*models.CustomShow, error) {
		return g.inner.GetCustomShowsByIDs(ctx, ids)
	})
}

// GetCustomShowContentCounts implements CustomShowProvider
func (g *Guarded) GetCustomShowContentCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return guard(ctx, g, "get custom show counts", func(ctx context.Context) (map[uuid.UUID]int, error) {
		return g.inner.GetCustomShowContentCounts(ctx, ids)
	})
}

// GetCustomShowContents implements CustomShowProvider
func (g *Guarded) GetCustomShowContents(ctx context.Context, id uuid.UUID) ([]*models.Program, error) {
	return guard(ctx, g, "get custom show contents", func(ctx context.Context) ([]*models.Program, error) {
		return g.inner.GetCustomShowContents(ctx, id)
	})
}

// GetSmartCollectionsByIDs implements SmartCollectionProvider
func (g *Guarded) GetSmartCollectionsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.SmartCollection, error) {
	return guard(ctx, g, "get smart collections", func(ctx context.Context) (map[uuid.UUID]*models.SmartCollection, error) {
		return g.inner.GetSmartCollectionsByIDs(ctx, ids)
	})
}

// GetSmartCollectionContents implements SmartCollectionProvider
func (g *Guarded) GetSmartCollectionContents(ctx context.Context, id uuid.UUID) ([]*models.Program, error) {
	return guard(ctx, g, "get smart collection contents", func(ctx context.Context) ([]*models.Program, error) {
		return g.inner.GetSmartCollectionContents(ctx, id)
	})
}

// LoadLineup implements LineupProvider
func (g *Guarded) LoadLineup(ctx context.Context, channelID uuid.UUID) (*Lineup, error) {
	return g.inner.LoadLineup(ctx, channelID)
}

// LoadAllLineupConfigs implements LineupProvider
func (g *Guarded) LoadAllLineupConfigs(ctx context.Context) (map[uuid.UUID]*Lineup, error) {
	return g.inner.LoadAllLineupConfigs(ctx)
}
