package queries

import (
	"context"
	"time"

	"bloodconnect/internal/domain/request"
	"bloodconnect/internal/infra"
	"bloodconnect/internal/pkg/clock"
	"bloodconnect/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrInvalidCursor = errs.New("invalid search cursor")

// RequestReadStore is the read-side port. Implementations must resolve the
// externally visible status: an open row whose deadline has passed reads as
// expired regardless of sweep timing.
type RequestReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID, now time.Time) (*RequestView, error)
	Search(ctx context.Context, filter SearchFilter, after *SearchKey, limit int32, now time.Time) ([]*RequestListItem, error)
}

// RequestQueries is the matching query engine surface.
type RequestQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*RequestView, error)
	Search(ctx context.Context, filter SearchFilter, afterCursor string, limit int) (*SearchPage, error)
}

// SearchPage is one page of the ranked listing. NextCursor is empty once
// the sequence is exhausted; a consumed cursor cannot be rewound.
type SearchPage struct {
	Items      []*RequestListItem `json:"data"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

type requestQueriesImpl struct {
	store RequestReadStore
	clock clock.Clock
}

func NewRequestQueries(store RequestReadStore, clk clock.Clock) RequestQueries {
	return &requestQueriesImpl{store: store, clock: clk}
}

func (q *requestQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*RequestView, error) {
	view, err := q.store.FindByID(ctx, id, q.clock.Now())
	if err != nil {
		return nil, mapReadErr(err)
	}
	return view, nil
}

func (q *requestQueriesImpl) Search(ctx context.Context, filter SearchFilter, afterCursor string, limit int) (*SearchPage, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	var after *SearchKey
	if afterCursor != "" {
		key, err := DecodeSearchCursor(afterCursor)
		if err != nil {
			return nil, errs.Mark(err, ErrInvalidCursor)
		}
		after = &key
	}

	// Fetch one extra row to detect whether the sequence continues.
	rows, err := q.store.Search(ctx, filter, after, int32(limit)+1, q.clock.Now())
	if err != nil {
		return nil, mapReadErr(err)
	}

	page := &SearchPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = EncodeSearchCursor(SearchKey{
			UrgencyRank:  request.Urgency(last.Urgency).Rank(),
			RequiredDate: last.RequiredDate,
			CreatedAt:    last.CreatedAt,
			ID:           last.ID,
		})
	}
	page.Items = rows
	return page, nil
}

func mapReadErr(err error) error {
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, errs.ErrRequestNotFound)
	case infra.IsKind(err, infra.KindDBFailure), infra.IsKind(err, infra.KindUnavailable):
		return errs.Mark(err, errs.ErrStorageUnavailable)
	default:
		return err
	}
}
