package commands

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"bloodconnect/internal/domain/request"
	"bloodconnect/internal/infra"
	"bloodconnect/internal/metrics"
	"bloodconnect/internal/pkg/clock"
	"bloodconnect/internal/pkg/config"
	"bloodconnect/internal/pkg/errs"
	"bloodconnect/internal/usecase/queries"
	"bloodconnect/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RoleAdmin bypasses the requester-only check on advancing responses.
const RoleAdmin = "admin"

type CreateRequestInput struct {
	RequesterID     uuid.UUID
	PatientName     string
	BloodType       string
	UnitsRequired   int
	Urgency         string
	HospitalName    string
	HospitalAddress string
	HospitalCity    string
	HospitalState   string
	ContactName     string
	ContactPhone    string
	ContactEmail    string
	RequiredDate    time.Time
}

// RequestCommands is the write-side surface of the fulfillment engine.
// Every mutation is serialized per request aggregate and recomputes the
// lifecycle status before returning.
type RequestCommands interface {
	Create(ctx context.Context, in CreateRequestInput) (*queries.RequestView, error)
	Respond(ctx context.Context, requestID, donorID uuid.UUID) (*queries.RequestView, error)
	Advance(ctx context.Context, requestID uuid.UUID, actorID uuid.UUID, actorRole string, donorID uuid.UUID, target string) (*queries.RequestView, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

type requestUseCaseImpl struct {
	uow            shared.UnitOfWork
	lister         shared.DueOpenLister
	requestQueries queries.RequestQueries
	clock          clock.Clock
	metrics        *metrics.Metrics
	sweepCfg       config.SweeperConfig
}

func NewRequestCommands(
	uow shared.UnitOfWork,
	lister shared.DueOpenLister,
	requestQueries queries.RequestQueries,
	clk clock.Clock,
	m *metrics.Metrics,
	sweepCfg config.SweeperConfig,
) RequestCommands {
	return &requestUseCaseImpl{
		uow:            uow,
		lister:         lister,
		requestQueries: requestQueries,
		clock:          clk,
		metrics:        m,
		sweepCfg:       sweepCfg,
	}
}

func (uc *requestUseCaseImpl) Create(ctx context.Context, in CreateRequestInput) (*queries.RequestView, error) {
	bloodType, err := request.NewBloodType(in.BloodType)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	units, err := request.NewUnitCount(in.UnitsRequired)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	urgency, err := request.NewUrgency(in.Urgency)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	hospital, err := request.NewHospital(in.HospitalName, in.HospitalAddress, in.HospitalCity, in.HospitalState)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	contact, err := request.NewContact(in.ContactName, in.ContactPhone, in.ContactEmail)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	agg, err := request.NewRequest(
		in.RequesterID,
		in.PatientName,
		bloodType,
		units,
		urgency,
		hospital,
		contact,
		in.RequiredDate,
		uc.clock.Now(),
	)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Requests().Create(ctx, agg)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	uc.metrics.RequestsCreated.Inc()
	return uc.requestQueries.GetByID(ctx, agg.ID())
}

func (uc *requestUseCaseImpl) Respond(ctx context.Context, requestID, donorID uuid.UUID) (*queries.RequestView, error) {
	err := uc.uow.WithinRequest(ctx, requestID, func(ctx context.Context, tx shared.Tx) error {
		agg, ferr := tx.Requests().FindByID(ctx, requestID)
		if ferr != nil {
			return ferr
		}
		if aerr := agg.AddResponse(donorID, uc.clock.Now()); aerr != nil {
			return aerr
		}
		return tx.Requests().Save(ctx, agg)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	uc.metrics.ResponsesRecorded.Inc()
	return uc.requestQueries.GetByID(ctx, requestID)
}

func (uc *requestUseCaseImpl) Advance(
	ctx context.Context,
	requestID uuid.UUID,
	actorID uuid.UUID,
	actorRole string,
	donorID uuid.UUID,
	target string,
) (*queries.RequestView, error) {
	targetStatus := request.ResponseStatus(target)
	if !targetStatus.IsValid() {
		return nil, errs.ErrInvalidTargetStatus
	}

	var fulfilled bool
	err := uc.uow.WithinRequest(ctx, requestID, func(ctx context.Context, tx shared.Tx) error {
		agg, ferr := tx.Requests().FindByID(ctx, requestID)
		if ferr != nil {
			return ferr
		}
		if agg.CreatedBy() != actorID && actorRole != RoleAdmin {
			return errs.ErrNotRequestOwner
		}
		if aerr := agg.AdvanceResponse(donorID, targetStatus, uc.clock.Now()); aerr != nil {
			return aerr
		}
		fulfilled = agg.Status() == request.StatusFulfilled
		return tx.Requests().Save(ctx, agg)
	})
	if err != nil {
		if errors.Is(err, request.ErrCapacityExceeded) {
			uc.metrics.CapacityRejections.Inc()
		}
		return nil, mapStoreErr(err)
	}

	uc.metrics.ResponsesAdvanced.WithLabelValues(target).Inc()
	if fulfilled {
		uc.metrics.RequestsFulfilled.Inc()
	}
	return uc.requestQueries.GetByID(ctx, requestID)
}

// ExpireDue expires every open request whose deadline passed before now.
// Each candidate is expired under its own aggregate lock; requests that
// were fulfilled or already expired in the meantime are skipped, so a
// second run right after the first changes nothing.
func (uc *requestUseCaseImpl) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := uc.lister.ListDueOpenIDs(ctx, now, uc.sweepCfg.BatchSize)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var expired atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.sweepCfg.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			var changed bool
			werr := uc.uow.WithinRequest(gctx, id, func(ctx context.Context, tx shared.Tx) error {
				agg, ferr := tx.Requests().FindByID(ctx, id)
				if ferr != nil {
					return ferr
				}
				if !agg.Expire(now) {
					return nil
				}
				changed = true
				return tx.Requests().Save(ctx, agg)
			})
			if werr != nil {
				// One stuck aggregate must not starve the rest of the sweep.
				slog.Warn("failed to expire request", "request_id", id, "error", werr.Error())
				return nil
			}
			if changed {
				expired.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(expired.Load()), err
	}

	n := int(expired.Load())
	uc.metrics.RequestsExpired.Add(float64(n))
	return n, nil
}

// mapStoreErr translates infrastructure error kinds into the engine's
// error taxonomy; domain errors pass through untouched.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, errs.ErrRequestNotFound)
	case infra.IsKind(err, infra.KindDuplicateKey):
		return errs.Mark(err, request.ErrDuplicateResponse)
	case infra.IsKind(err, infra.KindDBFailure), infra.IsKind(err, infra.KindUnavailable):
		return errs.Mark(err, errs.ErrStorageUnavailable)
	default:
		return err
	}
}
