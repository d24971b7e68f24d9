package readstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloodconnect/internal/infra"
	"bloodconnect/internal/infra/db"
	"bloodconnect/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// effectiveStatusExpr derives the status a reader should see: an open request
// past its deadline reads as expired even before the sweeper persists it.
const effectiveStatusExpr = `CASE WHEN r.status = 'open' AND r.required_date < %s THEN 'expired' ELSE r.status END`

const urgencyRankExpr = `CASE r.urgency WHEN 'critical' THEN 3 WHEN 'urgent' THEN 2 ELSE 1 END`

type RequestReadStore struct {
	db db.DBTX
}

func NewRequestReadStore(db db.DBTX) *RequestReadStore {
	return &RequestReadStore{db: db}
}

func (s *RequestReadStore) FindByID(ctx context.Context, id uuid.UUID, now time.Time) (*queries.RequestView, error) {
	sql := fmt.Sprintf(`
SELECT r.id, r.patient_name, r.blood_type, r.units_required, r.urgency,
	r.hospital_name, r.hospital_address, r.hospital_city, r.hospital_state,
	r.contact_name, r.contact_phone, r.contact_email,
	r.required_date, `+effectiveStatusExpr+` AS status,
	r.created_by, r.created_at, r.updated_at
FROM requests r
WHERE r.id = $1`, "$2")

	var v queries.RequestView
	err := s.db.QueryRow(ctx, sql, id, now).Scan(
		&v.ID, &v.PatientName, &v.BloodType, &v.UnitsRequired, &v.Urgency,
		&v.Hospital.Name, &v.Hospital.Address, &v.Hospital.City, &v.Hospital.State,
		&v.Contact.Name, &v.Contact.Phone, &v.Contact.Email,
		&v.RequiredDate, &v.Status,
		&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, infra.WrapRepoErr("request not found", err, infra.KindNotFound)
	}
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find request by ID", err)
	}

	donors, err := s.loadDonors(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Donors = donors

	return &v, nil
}

func (s *RequestReadStore) loadDonors(ctx context.Context, id uuid.UUID) ([]queries.DonorEntryView, error) {
	rows, err := s.db.Query(ctx, `
SELECT donor_id, status, contacted_at, updated_at
FROM request_donors
WHERE request_id = $1
ORDER BY contacted_at, donor_id`, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load donor responses", err)
	}
	defer rows.Close()

	donors := []queries.DonorEntryView{}
	for rows.Next() {
		var d queries.DonorEntryView
		if err := rows.Scan(&d.Donor, &d.Status, &d.ContactedAt, &d.UpdatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan donor response", err)
		}
		donors = append(donors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read donor responses", err)
	}
	return donors, nil
}

// Search runs the matching query: filters narrow the candidate set, ordering
// puts the most urgent and soonest-needed requests first, and the keyset
// predicate resumes a page sequence without offset scans.
func (s *RequestReadStore) Search(ctx context.Context, filter queries.SearchFilter, after *queries.SearchKey, limit int32, now time.Time) ([]*queries.RequestListItem, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	nowPlaceholder := arg(now)
	statusExpr := fmt.Sprintf(effectiveStatusExpr, nowPlaceholder)

	if filter.BloodType != nil {
		conds = append(conds, "r.blood_type = "+arg(*filter.BloodType))
	}
	if filter.City != nil {
		conds = append(conds, "r.hospital_city ILIKE "+arg("%"+*filter.City+"%"))
	}
	if filter.State != nil {
		conds = append(conds, "r.hospital_state ILIKE "+arg("%"+*filter.State+"%"))
	}
	if filter.Urgency != nil {
		conds = append(conds, "r.urgency = "+arg(*filter.Urgency))
	}
	if filter.Status != nil {
		conds = append(conds, statusExpr+" = "+arg(*filter.Status))
	} else {
		conds = append(conds, statusExpr+" = 'open'")
	}

	if after != nil {
		rankPh := arg(after.UrgencyRank)
		conds = append(conds, fmt.Sprintf(
			"(%s < %s OR (%s = %s AND (r.required_date, r.created_at, r.id) > (%s, %s, %s)))",
			urgencyRankExpr, rankPh, urgencyRankExpr, rankPh,
			arg(after.RequiredDate), arg(after.CreatedAt), arg(after.ID),
		))
	}

	sql := fmt.Sprintf(`
SELECT r.id, r.patient_name, r.blood_type, r.units_required, r.urgency,
	r.hospital_city, r.hospital_state, r.required_date,
	%s AS status, r.created_at
FROM requests r
WHERE %s
ORDER BY %s DESC, r.required_date ASC, r.created_at ASC, r.id ASC
LIMIT %s`,
		statusExpr,
		strings.Join(conds, " AND "),
		urgencyRankExpr,
		arg(limit),
	)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to search requests", err)
	}
	defer rows.Close()

	var items []*queries.RequestListItem
	for rows.Next() {
		var it queries.RequestListItem
		if err := rows.Scan(
			&it.ID, &it.PatientName, &it.BloodType, &it.UnitsRequired, &it.Urgency,
			&it.City, &it.State, &it.RequiredDate, &it.Status, &it.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan search row", err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read search rows", err)
	}
	return items, nil
}

// ListDueOpenIDs feeds the lifecycle sweeper: open requests whose deadline
// has passed, oldest deadline first.
func (s *RequestReadStore) ListDueOpenIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `
SELECT id FROM requests
WHERE status = 'open' AND required_date < $1
ORDER BY required_date ASC
LIMIT $2`, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list due requests", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan request id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read due request ids", err)
	}
	return ids, nil
}
