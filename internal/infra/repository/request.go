package repository

import (
	"context"
	"errors"
	"time"

	"bloodconnect/internal/domain/request"
	"bloodconnect/internal/infra"
	"bloodconnect/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrCodeUniqueViolation = "23505"

const insertRequestSQL = `
INSERT INTO requests (
	id, patient_name, blood_type, units_required, urgency,
	hospital_name, hospital_address, hospital_city, hospital_state,
	contact_name, contact_phone, contact_email,
	required_date, status, created_by, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
)`

const selectRequestSQL = `
SELECT patient_name, blood_type, units_required, urgency,
	hospital_name, hospital_address, hospital_city, hospital_state,
	contact_name, contact_phone, contact_email,
	required_date, status, created_by, created_at, updated_at
FROM requests
WHERE id = $1`

const selectDonorsSQL = `
SELECT donor_id, status, contacted_at, updated_at
FROM request_donors
WHERE request_id = $1
ORDER BY contacted_at, donor_id`

const updateRequestSQL = `
UPDATE requests SET status = $2, updated_at = $3 WHERE id = $1`

const upsertDonorSQL = `
INSERT INTO request_donors (request_id, donor_id, status, contacted_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (request_id, donor_id)
DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`

type RequestRepository struct {
	db db.DBTX
}

func NewRequestRepository(db db.DBTX) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	var email *string
	if e := req.Contact().Email(); e != "" {
		email = &e
	}

	_, err := r.db.Exec(ctx, insertRequestSQL,
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
		email,
		req.RequiredDate(),
		string(req.Status()),
		req.CreatedBy(),
		req.CreatedAt(),
		req.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("request already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to create request", err)
	}
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	var (
		patientName   string
		bloodType     string
		units         int
		urgency       string
		hospitalName  string
		hospitalAddr  string
		hospitalCity  string
		hospitalState string
		contactName   string
		contactPhone  string
		contactEmail  *string
		requiredDate  time.Time
		status        string
		createdBy     uuid.UUID
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := r.db.QueryRow(ctx, selectRequestSQL, id).Scan(
		&patientName, &bloodType, &units, &urgency,
		&hospitalName, &hospitalAddr, &hospitalCity, &hospitalState,
		&contactName, &contactPhone, &contactEmail,
		&requiredDate, &status, &createdBy, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, infra.WrapRepoErr("request not found", err, infra.KindNotFound)
	}
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find request", err)
	}

	donors, err := r.loadDonors(ctx, id)
	if err != nil {
		return nil, err
	}

	email := ""
	if contactEmail != nil {
		email = *contactEmail
	}

	return request.ReconstructRequest(
		id, patientName, bloodType, units, urgency,
		hospitalName, hospitalAddr, hospitalCity, hospitalState,
		contactName, contactPhone, email,
		requiredDate, request.Status(status), createdBy,
		donors, createdAt, updatedAt,
	), nil
}

func (r *RequestRepository) Save(ctx context.Context, req *request.Request) error {
	_, err := r.db.Exec(ctx, updateRequestSQL, req.ID(), string(req.Status()), req.UpdatedAt())
	if err != nil {
		return infra.WrapRepoErr("failed to update request", err)
	}

	snap := req.Snapshot(req.UpdatedAt())
	for _, d := range snap.Donors {
		_, err := r.db.Exec(ctx, upsertDonorSQL, req.ID(), d.DonorID, string(d.Status), d.ContactedAt, d.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return infra.WrapRepoErr("donor already responded", err, infra.KindDuplicateKey)
			}
			return infra.WrapRepoErr("failed to save donor response", err)
		}
	}
	return nil
}

func (r *RequestRepository) loadDonors(ctx context.Context, id uuid.UUID) ([]request.DonorResponse, error) {
	rows, err := r.db.Query(ctx, selectDonorsSQL, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load donor responses", err)
	}
	defer rows.Close()

	var donors []request.DonorResponse
	for rows.Next() {
		var (
			donorID     uuid.UUID
			status      string
			contactedAt time.Time
			updatedAt   time.Time
		)
		if err := rows.Scan(&donorID, &status, &contactedAt, &updatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan donor response", err)
		}
		donors = append(donors, request.ReconstructDonorResponse(donorID, request.ResponseStatus(status), contactedAt, updatedAt))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read donor responses", err)
	}
	return donors, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation
}
