//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is the minimal interface required for test DB operations.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RequestRow describes a row to seed directly into the requests table,
// bypassing the API. Zero fields fall back to sensible defaults.
type RequestRow struct {
	PatientName  string
	BloodType    string
	Units        int
	Urgency      string
	City         string
	RequiredDate time.Time
	Status       string
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
}

func SeedRequest(t *testing.T, db DBLike, row RequestRow) uuid.UUID {
	t.Helper()

	if row.PatientName == "" {
		row.PatientName = "Seeded Patient"
	}
	if row.BloodType == "" {
		row.BloodType = "O+"
	}
	if row.Units == 0 {
		row.Units = 2
	}
	if row.Urgency == "" {
		row.Urgency = "normal"
	}
	if row.City == "" {
		row.City = "Springfield"
	}
	if row.RequiredDate.IsZero() {
		row.RequiredDate = time.Now().Add(72 * time.Hour)
	}
	if row.Status == "" {
		row.Status = "open"
	}
	if row.CreatedBy == uuid.Nil {
		row.CreatedBy = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}

	id := uuid.New()
	ctx := context.Background()
	_, err := db.Exec(ctx, `
		INSERT INTO requests (
			id, patient_name, blood_type, units_required, urgency,
			hospital_name, hospital_address, hospital_city, hospital_state,
			contact_name, contact_phone, contact_email,
			required_date, status, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 'City General Hospital', '100 Main St', $6, 'IL',
			'Jordan Reyes', '5551234567', NULL, $7, $8, $9, $10, $10)`,
		id, row.PatientName, row.BloodType, row.Units, row.Urgency,
		row.City, row.RequiredDate, row.Status, row.CreatedBy, row.CreatedAt)
	require.NoError(t, err)

	return id
}

// RequestStatus reads the persisted (not effective) status of a request.
func RequestStatus(t *testing.T, db DBLike, id uuid.UUID) string {
	t.Helper()

	var status string
	err := db.QueryRow(context.Background(),
		"SELECT status FROM requests WHERE id = $1", id).Scan(&status)
	require.NoError(t, err)
	return status
}

func DonorStatus(t *testing.T, db DBLike, requestID, donorID uuid.UUID) string {
	t.Helper()

	var status string
	err := db.QueryRow(context.Background(),
		"SELECT status FROM request_donors WHERE request_id = $1 AND donor_id = $2",
		requestID, donorID).Scan(&status)
	require.NoError(t, err)
	return status
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// ResetDB truncates all tables so each subtest starts from a clean slate.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return nil
}
