// Package memstore is an in-process implementation of the request store
// ports. It backs unit tests and local runs without PostgreSQL while keeping
// the same serialization guarantee: one writer per request at a time.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bloodconnect/internal/domain/request"
	"bloodconnect/internal/infra"
	"bloodconnect/internal/pkg/errs"
	"bloodconnect/internal/usecase/queries"
	"bloodconnect/internal/usecase/shared"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*request.Request

	lockMu sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex
}

func New() *Store {
	return &Store{
		requests: make(map[uuid.UUID]*request.Request),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// UnitOfWork

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, &memTx{store: s})
}

// WithinRequest holds the per-aggregate mutex for the duration of fn, so
// concurrent mutations of the same request run one after another and each
// reads the ledger the previous writer left.
func (s *Store) WithinRequest(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.RLock()
	_, ok := s.requests[id]
	s.mu.RUnlock()
	if !ok {
		return infra.WrapRepoErr("request not found", errs.New("no such request"), infra.KindNotFound)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &memTx{store: s})
}

func (s *Store) lockFor(id uuid.UUID) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

type memTx struct {
	store *Store
}

func (t *memTx) Requests() shared.RequestRepository {
	return t.store
}

// RequestRepository

func (s *Store) Create(ctx context.Context, req *request.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID()]; ok {
		return infra.WrapRepoErr("request already exists", errs.New("duplicate id"), infra.KindDuplicateKey)
	}
	s.requests[req.ID()] = cloneRequest(req)
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, infra.WrapRepoErr("request not found", errs.New("no such request"), infra.KindNotFound)
	}
	return cloneRequest(req), nil
}

func (s *Store) Save(ctx context.Context, req *request.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID()]; !ok {
		return infra.WrapRepoErr("request not found", errs.New("no such request"), infra.KindNotFound)
	}
	s.requests[req.ID()] = cloneRequest(req)
	return nil
}

// cloneRequest deep-copies an aggregate so callers never share ledger slices
// with the stored instance.
func cloneRequest(req *request.Request) *request.Request {
	donors := make([]request.DonorResponse, 0)
	snap := req.Snapshot(time.Time{})
	for _, d := range snap.Donors {
		donors = append(donors, request.ReconstructDonorResponse(d.DonorID, d.Status, d.ContactedAt, d.UpdatedAt))
	}
	return request.ReconstructRequest(
		req.ID(),
		req.PatientName(),
		req.BloodType().String(),
		req.Units().Value(),
		req.Urgency().String(),
		req.Hospital().Name(),
		req.Hospital().Address(),
		req.Hospital().City(),
		req.Hospital().State(),
		req.Contact().Name(),
		req.Contact().Phone(),
		req.Contact().Email(),
		req.RequiredDate(),
		req.Status(),
		req.CreatedBy(),
		donors,
		req.CreatedAt(),
		req.UpdatedAt(),
	)
}

// ReadStore exposes the query side over the same map. A separate type keeps
// the read signatures from colliding with the repository ones.
type ReadStore struct {
	s *Store
}

func (s *Store) ReadStore() *ReadStore {
	return &ReadStore{s: s}
}

func (r *ReadStore) FindByID(ctx context.Context, id uuid.UUID, now time.Time) (*queries.RequestView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, infra.WrapRepoErr("request not found", errs.New("no such request"), infra.KindNotFound)
	}
	return viewOf(req, now), nil
}

func viewOf(req *request.Request, now time.Time) *queries.RequestView {
	snap := req.Snapshot(now)

	donors := make([]queries.DonorEntryView, 0, len(snap.Donors))
	for _, d := range snap.Donors {
		donors = append(donors, queries.DonorEntryView{
			Donor:       d.DonorID,
			Status:      string(d.Status),
			ContactedAt: d.ContactedAt,
			UpdatedAt:   d.UpdatedAt,
		})
	}

	var email *string
	if snap.ContactEmail != "" {
		e := snap.ContactEmail
		email = &e
	}

	return &queries.RequestView{
		ID:            snap.ID,
		PatientName:   snap.PatientName,
		BloodType:     snap.BloodType.String(),
		UnitsRequired: snap.Units,
		Urgency:       snap.Urgency.String(),
		Hospital: queries.HospitalView{
			Name:    snap.HospitalName,
			Address: snap.Address,
			City:    snap.City,
			State:   snap.State,
		},
		Contact: queries.ContactView{
			Name:  snap.ContactName,
			Phone: snap.ContactPhone,
			Email: email,
		},
		RequiredDate: snap.RequiredDate,
		Status:       string(snap.Status),
		CreatedBy:    snap.CreatedBy,
		Donors:       donors,
		CreatedAt:    snap.CreatedAt,
		UpdatedAt:    snap.UpdatedAt,
	}
}

func (r *ReadStore) Search(ctx context.Context, filter queries.SearchFilter, after *queries.SearchKey, limit int32, now time.Time) ([]*queries.RequestListItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var items []*queries.RequestListItem
	for _, req := range r.s.requests {
		status := string(req.StatusAt(now))
		if filter.Status != nil {
			if status != *filter.Status {
				continue
			}
		} else if status != string(request.StatusOpen) {
			continue
		}
		if filter.BloodType != nil && req.BloodType().String() != *filter.BloodType {
			continue
		}
		if filter.City != nil && !containsFold(req.Hospital().City(), *filter.City) {
			continue
		}
		if filter.State != nil && !containsFold(req.Hospital().State(), *filter.State) {
			continue
		}
		if filter.Urgency != nil && req.Urgency().String() != *filter.Urgency {
			continue
		}
		items = append(items, &queries.RequestListItem{
			ID:            req.ID(),
			PatientName:   req.PatientName(),
			BloodType:     req.BloodType().String(),
			UnitsRequired: req.Units().Value(),
			Urgency:       req.Urgency().String(),
			City:          req.Hospital().City(),
			State:         req.Hospital().State(),
			RequiredDate:  req.RequiredDate(),
			Status:        status,
			CreatedAt:     req.CreatedAt(),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return lessItem(items[i], items[j])
	})

	if after != nil {
		cut := sort.Search(len(items), func(i int) bool {
			return lessKey(*after, keyOf(items[i]))
		})
		items = items[cut:]
	}

	if int32(len(items)) > limit {
		items = items[:limit]
	}
	return items, nil
}

func keyOf(it *queries.RequestListItem) queries.SearchKey {
	return queries.SearchKey{
		UrgencyRank:  request.Urgency(it.Urgency).Rank(),
		RequiredDate: it.RequiredDate,
		CreatedAt:    it.CreatedAt,
		ID:           it.ID,
	}
}

func lessItem(a, b *queries.RequestListItem) bool {
	return lessKey(keyOf(a), keyOf(b))
}

// lessKey orders by urgency rank desc, then required date, created_at and id
// ascending.
func lessKey(a, b queries.SearchKey) bool {
	if a.UrgencyRank != b.UrgencyRank {
		return a.UrgencyRank > b.UrgencyRank
	}
	if !a.RequiredDate.Equal(b.RequiredDate) {
		return a.RequiredDate.Before(b.RequiredDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// DueOpenLister

func (r *ReadStore) ListDueOpenIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type due struct {
		id   uuid.UUID
		date time.Time
	}
	var dues []due
	for id, req := range r.s.requests {
		if req.Status() == request.StatusOpen && now.After(req.RequiredDate()) {
			dues = append(dues, due{id: id, date: req.RequiredDate()})
		}
	}
	sort.Slice(dues, func(i, j int) bool { return dues[i].date.Before(dues[j].date) })

	if len(dues) > limit {
		dues = dues[:limit]
	}
	ids := make([]uuid.UUID, 0, len(dues))
	for _, d := range dues {
		ids = append(ids, d.id)
	}
	return ids, nil
}
