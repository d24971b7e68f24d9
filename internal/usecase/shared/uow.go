package shared

import (
	"context"
	"time"

	"bloodconnect/internal/domain/request"

	"github.com/google/uuid"
)

// RequestRepository is the write-side port over the durable store.
type RequestRepository interface {
	Create(ctx context.Context, req *request.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*request.Request, error)
	Save(ctx context.Context, req *request.Request) error
}

// Tx exposes repositories bound to one unit of work.
type Tx interface {
	Requests() RequestRepository
}

// UnitOfWork owns transactional semantics. WithinRequest additionally
// serializes fn against every other in-flight mutation of the same request
// aggregate; operations on different requests run in parallel. If fn returns
// an error nothing is applied; otherwise the whole mutation commits
// atomically.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	WithinRequest(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, tx Tx) error) error
}

// DueOpenLister feeds the lifecycle sweeper with candidates: open requests
// whose deadline has passed.
type DueOpenLister interface {
	ListDueOpenIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}
