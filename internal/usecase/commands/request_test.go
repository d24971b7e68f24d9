//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bloodconnect/internal/domain/request"
	"bloodconnect/internal/infra/memstore"
	"bloodconnect/internal/metrics"
	"bloodconnect/internal/pkg/clock"
	"bloodconnect/internal/pkg/config"
	"bloodconnect/internal/pkg/errs"
	"bloodconnect/internal/usecase/commands"
	"bloodconnect/internal/usecase/queries"
	"bloodconnect/tests/common/builder"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RequestCommandsTestSuite struct {
	suite.Suite
	store    *memstore.Store
	clock    *clock.MockClock
	commands commands.RequestCommands
	queries  queries.RequestQueries
}

func (s *RequestCommandsTestSuite) SetupTest() {
	s.store = memstore.New()
	s.clock = clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	readStore := s.store.ReadStore()
	s.queries = queries.NewRequestQueries(readStore, s.clock)
	s.commands = commands.NewRequestCommands(
		s.store,
		readStore,
		s.queries,
		s.clock,
		metrics.New(prometheus.NewRegistry()),
		config.SweeperConfig{Interval: time.Minute, Concurrency: 4, BatchSize: 500},
	)
}

func TestRequestCommandsSuite(t *testing.T) {
	suite.Run(t, new(RequestCommandsTestSuite))
}

func (s *RequestCommandsTestSuite) create(mutates ...func(*builder.RequestBuilder)) *queries.RequestView {
	b := builder.NewRequestBuilder()
	b.Now = s.clock.Now()
	b.RequiredDate = s.clock.Now().Add(72 * time.Hour)
	for _, m := range mutates {
		m(b)
	}
	view, err := s.commands.Create(context.Background(), b.BuildCreateInput())
	s.Require().NoError(err)
	s.Require().NotNil(view)
	return view
}

func (s *RequestCommandsTestSuite) TestCreate() {
	s.Run("creates an open request", func() {
		view := s.create()
		assert.Equal(s.T(), "open", view.Status)
		assert.Equal(s.T(), "O+", view.BloodType)
		assert.Empty(s.T(), view.Donors)
	})

	s.Run("rejects invalid input", func() {
		b := builder.NewRequestBuilder()
		b.Now = s.clock.Now()
		b.UnitsRequired = 0
		_, err := s.commands.Create(context.Background(), b.BuildCreateInput())
		require.ErrorIs(s.T(), err, errs.ErrDomainValidation)
	})

	s.Run("rejects past required date", func() {
		b := builder.NewRequestBuilder()
		b.RequiredDate = s.clock.Now().Add(-time.Hour)
		_, err := s.commands.Create(context.Background(), b.BuildCreateInput())
		require.ErrorIs(s.T(), err, errs.ErrDomainValidation)
	})
}

func (s *RequestCommandsTestSuite) TestRespond() {
	s.Run("records a pending response", func() {
		created := s.create()
		donorID := uuid.New()

		view, err := s.commands.Respond(context.Background(), created.ID, donorID)
		require.NoError(s.T(), err)
		require.Len(s.T(), view.Donors, 1)
		assert.Equal(s.T(), donorID, view.Donors[0].Donor)
		assert.Equal(s.T(), "pending", view.Donors[0].Status)
	})

	s.Run("rejects a duplicate response", func() {
		created := s.create()
		donorID := uuid.New()

		_, err := s.commands.Respond(context.Background(), created.ID, donorID)
		require.NoError(s.T(), err)
		_, err = s.commands.Respond(context.Background(), created.ID, donorID)
		require.ErrorIs(s.T(), err, request.ErrDuplicateResponse)
	})

	s.Run("rejects responses to an unknown request", func() {
		_, err := s.commands.Respond(context.Background(), uuid.New(), uuid.New())
		require.ErrorIs(s.T(), err, errs.ErrRequestNotFound)
	})

	s.Run("rejects responses once the deadline passed", func() {
		created := s.create()
		s.clock.Set(created.RequiredDate.Add(time.Minute))

		_, err := s.commands.Respond(context.Background(), created.ID, uuid.New())
		require.ErrorIs(s.T(), err, request.ErrRequestNotOpen)
	})
}

func (s *RequestCommandsTestSuite) TestAdvance() {
	ctx := context.Background()

	s.Run("requester accepts and completes a donation", func() {
		created := s.create()
		donorID := uuid.New()
		_, err := s.commands.Respond(ctx, created.ID, donorID)
		require.NoError(s.T(), err)

		view, err := s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", donorID, "accepted")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "accepted", view.Donors[0].Status)

		view, err = s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", donorID, "donated")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "donated", view.Donors[0].Status)
	})

	s.Run("request fulfills when donations reach the unit count", func() {
		created := s.create(func(b *builder.RequestBuilder) { b.UnitsRequired = 1 })
		donorID := uuid.New()
		_, err := s.commands.Respond(ctx, created.ID, donorID)
		require.NoError(s.T(), err)

		_, err = s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", donorID, "accepted")
		require.NoError(s.T(), err)
		view, err := s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", donorID, "donated")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "fulfilled", view.Status)
	})

	s.Run("only the requester or an admin may advance", func() {
		created := s.create()
		donorID := uuid.New()
		_, err := s.commands.Respond(ctx, created.ID, donorID)
		require.NoError(s.T(), err)

		_, err = s.commands.Advance(ctx, created.ID, uuid.New(), "user", donorID, "accepted")
		require.ErrorIs(s.T(), err, errs.ErrNotRequestOwner)

		_, err = s.commands.Advance(ctx, created.ID, uuid.New(), commands.RoleAdmin, donorID, "accepted")
		require.NoError(s.T(), err)
	})

	s.Run("rejects an unknown target status", func() {
		created := s.create()
		_, err := s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", uuid.New(), "cancelled")
		require.ErrorIs(s.T(), err, errs.ErrInvalidTargetStatus)
	})

	s.Run("rejects an invalid transition", func() {
		created := s.create()
		donorID := uuid.New()
		_, err := s.commands.Respond(ctx, created.ID, donorID)
		require.NoError(s.T(), err)

		_, err = s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", donorID, "donated")
		require.ErrorIs(s.T(), err, request.ErrInvalidTransition)
	})

	s.Run("rejects an unknown donor", func() {
		created := s.create()
		_, err := s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", uuid.New(), "accepted")
		require.ErrorIs(s.T(), err, request.ErrResponseNotFound)
	})
}

// Concurrent donors racing on one request must each land exactly once in the
// ledger, and the capacity arbiter must never over-commit.
func (s *RequestCommandsTestSuite) TestConcurrency() {
	ctx := context.Background()

	s.Run("distinct donors all succeed", func() {
		created := s.create()
		const n = 20

		var wg sync.WaitGroup
		errCh := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.commands.Respond(ctx, created.ID, uuid.New())
				errCh <- err
			}()
		}
		wg.Wait()
		close(errCh)

		for err := range errCh {
			require.NoError(s.T(), err)
		}

		view, err := s.queries.GetByID(ctx, created.ID)
		require.NoError(s.T(), err)
		assert.Len(s.T(), view.Donors, n)
	})

	s.Run("same donor racing lands exactly once", func() {
		created := s.create()
		donorID := uuid.New()
		const n = 10

		var wg sync.WaitGroup
		errCh := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.commands.Respond(ctx, created.ID, donorID)
				errCh <- err
			}()
		}
		wg.Wait()
		close(errCh)

		var succeeded, duplicated int
		for err := range errCh {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, request.ErrDuplicateResponse):
				duplicated++
			default:
				s.T().Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(s.T(), 1, succeeded)
		assert.Equal(s.T(), n-1, duplicated)

		view, err := s.queries.GetByID(ctx, created.ID)
		require.NoError(s.T(), err)
		assert.Len(s.T(), view.Donors, 1)
	})

	s.Run("concurrent accepts never exceed the unit count", func() {
		created := s.create(func(b *builder.RequestBuilder) { b.UnitsRequired = 2 })

		const n = 5
		donors := make([]uuid.UUID, n)
		for i := range donors {
			donors[i] = uuid.New()
			_, err := s.commands.Respond(ctx, created.ID, donors[i])
			require.NoError(s.T(), err)
		}

		var wg sync.WaitGroup
		errCh := make(chan error, n)
		for _, donorID := range donors {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", donorID, "accepted")
				errCh <- err
			}()
		}
		wg.Wait()
		close(errCh)

		var accepted, rejected int
		for err := range errCh {
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, request.ErrCapacityExceeded):
				rejected++
			default:
				s.T().Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(s.T(), 2, accepted)
		assert.Equal(s.T(), 3, rejected)

		view, err := s.queries.GetByID(ctx, created.ID)
		require.NoError(s.T(), err)
		committed := 0
		for _, d := range view.Donors {
			if d.Status == "accepted" {
				committed++
			}
		}
		assert.Equal(s.T(), 2, committed)
	})
}

func (s *RequestCommandsTestSuite) TestExpireDue() {
	ctx := context.Background()

	s.Run("expires overdue open requests and is idempotent", func() {
		early := s.create(func(b *builder.RequestBuilder) { b.RequiredDate = s.clock.Now().Add(24 * time.Hour) })
		late := s.create(func(b *builder.RequestBuilder) { b.RequiredDate = s.clock.Now().Add(96 * time.Hour) })

		s.clock.Add(48 * time.Hour)
		n, err := s.commands.ExpireDue(ctx, s.clock.Now())
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 1, n)

		earlyView, err := s.queries.GetByID(ctx, early.ID)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "expired", earlyView.Status)

		lateView, err := s.queries.GetByID(ctx, late.ID)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "open", lateView.Status)

		n, err = s.commands.ExpireDue(ctx, s.clock.Now())
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 0, n)
	})

	s.Run("skips requests fulfilled before the sweep", func() {
		created := s.create(func(b *builder.RequestBuilder) {
			b.UnitsRequired = 1
			b.RequiredDate = s.clock.Now().Add(time.Hour)
		})
		donorID := uuid.New()
		_, err := s.commands.Respond(ctx, created.ID, donorID)
		require.NoError(s.T(), err)
		_, err = s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", donorID, "accepted")
		require.NoError(s.T(), err)
		_, err = s.commands.Advance(ctx, created.ID, created.CreatedBy, "user", donorID, "donated")
		require.NoError(s.T(), err)

		s.clock.Add(2 * time.Hour)
		_, err = s.commands.ExpireDue(ctx, s.clock.Now())
		require.NoError(s.T(), err)

		view, err := s.queries.GetByID(ctx, created.ID)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "fulfilled", view.Status)
	})
}

// A direct read between deadline and sweep must already report expired.
func (s *RequestCommandsTestSuite) TestEffectiveStatusBeforeSweep() {
	created := s.create(func(b *builder.RequestBuilder) { b.RequiredDate = s.clock.Now().Add(time.Hour) })

	s.clock.Add(2 * time.Hour)
	view, err := s.queries.GetByID(context.Background(), created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "expired", view.Status)
}
