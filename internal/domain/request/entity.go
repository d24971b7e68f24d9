package request

import (
	"fmt"
	"strings"
	"time"

	"bloodconnect/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrDuplicateResponse = errs.New("donor has already responded to this request")
	ErrCapacityExceeded  = errs.New("accepting this response would exceed the required unit count")
	ErrInvalidTransition = errs.New("response status transition is not allowed")
	ErrResponseNotFound  = errs.New("no response from this donor")
	ErrRequestNotOpen    = errs.New("request is no longer open")
)

// ValidationError names the field that failed creation-time validation.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// DonorResponse is a single ledger entry, owned by its Request and never
// addressable outside it.
type DonorResponse struct {
	donorID     uuid.UUID
	status      ResponseStatus
	contactedAt time.Time
	updatedAt   time.Time
}

func (d DonorResponse) DonorID() uuid.UUID     { return d.donorID }
func (d DonorResponse) Status() ResponseStatus { return d.status }
func (d DonorResponse) ContactedAt() time.Time { return d.contactedAt }
func (d DonorResponse) UpdatedAt() time.Time   { return d.updatedAt }

// Request is the aggregate root: the published need plus its donor-response
// ledger. All mutations go through its methods and recompute the lifecycle
// status before returning.
type Request struct {
	id           uuid.UUID
	patientName  string
	bloodType    BloodType
	units        UnitCount
	urgency      Urgency
	hospital     Hospital
	contact      Contact
	requiredDate time.Time
	status       Status
	createdBy    uuid.UUID
	donors       []DonorResponse
	createdAt    time.Time
	updatedAt    time.Time
}

func NewRequest(
	createdBy uuid.UUID,
	patientName string,
	bloodType BloodType,
	units UnitCount,
	urgency Urgency,
	hospital Hospital,
	contact Contact,
	requiredDate time.Time,
	now time.Time,
) (*Request, error) {
	if createdBy == uuid.Nil {
		return nil, NewValidationError("createdBy", "is required")
	}
	patientName = strings.TrimSpace(patientName)
	if patientName == "" {
		return nil, NewValidationError("patientName", "is required")
	}
	if !requiredDate.After(now) {
		return nil, NewValidationError("requiredDate", "must be in the future")
	}

	return &Request{
		id:           uuid.New(),
		patientName:  patientName,
		bloodType:    bloodType,
		units:        units,
		urgency:      urgency,
		hospital:     hospital,
		contact:      contact,
		requiredDate: requiredDate,
		status:       StatusOpen,
		createdBy:    createdBy,
		donors:       nil,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructRequest rehydrates a persisted aggregate without re-validating;
// the store is trusted to hold only states this package produced.
func ReconstructRequest(
	id uuid.UUID,
	patientName string,
	bloodType string,
	units int,
	urgency string,
	hospitalName, hospitalAddress, hospitalCity, hospitalState string,
	contactName, contactPhone, contactEmail string,
	requiredDate time.Time,
	status Status,
	createdBy uuid.UUID,
	donors []DonorResponse,
	createdAt, updatedAt time.Time,
) *Request {
	return &Request{
		id:           id,
		patientName:  patientName,
		bloodType:    BloodType(bloodType),
		units:        UnitCount{value: units},
		urgency:      Urgency(urgency),
		hospital:     Hospital{name: hospitalName, address: hospitalAddress, city: hospitalCity, state: hospitalState},
		contact:      Contact{name: contactName, phone: contactPhone, email: contactEmail},
		requiredDate: requiredDate,
		status:       status,
		createdBy:    createdBy,
		donors:       donors,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ReconstructDonorResponse rehydrates a persisted ledger entry.
func ReconstructDonorResponse(donorID uuid.UUID, status ResponseStatus, contactedAt, updatedAt time.Time) DonorResponse {
	return DonorResponse{
		donorID:     donorID,
		status:      status,
		contactedAt: contactedAt,
		updatedAt:   updatedAt,
	}
}

func (r *Request) ID() uuid.UUID           { return r.id }
func (r *Request) PatientName() string     { return r.patientName }
func (r *Request) BloodType() BloodType    { return r.bloodType }
func (r *Request) Units() UnitCount        { return r.units }
func (r *Request) Urgency() Urgency        { return r.urgency }
func (r *Request) Hospital() Hospital      { return r.hospital }
func (r *Request) Contact() Contact        { return r.contact }
func (r *Request) RequiredDate() time.Time { return r.requiredDate }
func (r *Request) Status() Status          { return r.status }
func (r *Request) CreatedBy() uuid.UUID    { return r.createdBy }
func (r *Request) CreatedAt() time.Time    { return r.createdAt }
func (r *Request) UpdatedAt() time.Time    { return r.updatedAt }

// StatusAt derives the externally visible status at a point in time: an open
// request whose deadline has passed reads as expired even before the sweeper
// has persisted the transition.
func (r *Request) StatusAt(now time.Time) Status {
	if r.status == StatusOpen && now.After(r.requiredDate) {
		return StatusExpired
	}
	return r.status
}

// ResponseByDonor finds the ledger entry for a donor, if any.
func (r *Request) ResponseByDonor(donorID uuid.UUID) (DonorResponse, bool) {
	for _, d := range r.donors {
		if d.donorID == donorID {
			return d, true
		}
	}
	return DonorResponse{}, false
}

// CommittedCount is the number of responses in accepted or donated state.
// Always recomputed from the ledger; no cached counter is trusted.
func (r *Request) CommittedCount() int {
	n := 0
	for _, d := range r.donors {
		if d.status.Committed() {
			n++
		}
	}
	return n
}

func (r *Request) DonatedCount() int {
	n := 0
	for _, d := range r.donors {
		if d.status == ResponseDonated {
			n++
		}
	}
	return n
}

// AddResponse appends a pending ledger entry for the donor. One response per
// donor per request; the caller must hold the aggregate's write lock so the
// duplicate check is atomic with the append.
func (r *Request) AddResponse(donorID uuid.UUID, now time.Time) error {
	if r.StatusAt(now) != StatusOpen {
		return ErrRequestNotOpen
	}
	if _, ok := r.ResponseByDonor(donorID); ok {
		return ErrDuplicateResponse
	}

	r.donors = append(r.donors, DonorResponse{
		donorID:     donorID,
		status:      ResponsePending,
		contactedAt: now,
		updatedAt:   now,
	})
	r.touch(now)
	r.recomputeStatus()
	return nil
}

// AdvanceResponse moves a donor's response along one of the allowed edges.
// The request must still be open at now; a deadline that has passed closes
// the ledger even before a sweep persists the expiry. Transitions into a
// committed state are arbitrated against the required unit count; on
// failure the ledger is left untouched.
func (r *Request) AdvanceResponse(donorID uuid.UUID, target ResponseStatus, now time.Time) error {
	if r.StatusAt(now) != StatusOpen {
		return ErrRequestNotOpen
	}
	idx := -1
	for i, d := range r.donors {
		if d.donorID == donorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrResponseNotFound
	}

	current := r.donors[idx].status
	if !canTransition(current, target) {
		return ErrInvalidTransition
	}
	if target.Committed() && !current.Committed() && r.CommittedCount() >= r.units.Value() {
		return ErrCapacityExceeded
	}

	r.donors[idx].status = target
	r.donors[idx].updatedAt = now
	r.touch(now)
	r.recomputeStatus()
	return nil
}

// Expire forces an overdue open request to expired. Returns false when
// nothing changed, so repeated sweeps are idempotent.
func (r *Request) Expire(now time.Time) bool {
	r.recomputeStatus()
	if r.status != StatusOpen || !now.After(r.requiredDate) {
		return false
	}
	r.status = StatusExpired
	r.touch(now)
	return true
}

// recomputeStatus marks the request fulfilled once donations cover the
// required units. Fulfilled and expired are sticky.
func (r *Request) recomputeStatus() {
	if r.status.IsTerminal() {
		return
	}
	if r.DonatedCount() >= r.units.Value() {
		r.status = StatusFulfilled
	}
}

func (r *Request) touch(now time.Time) {
	r.updatedAt = now
}

// Snapshot is an immutable view of a request and its ledger.
type Snapshot struct {
	ID           uuid.UUID
	PatientName  string
	BloodType    BloodType
	Units        int
	Urgency      Urgency
	HospitalName string
	Address      string
	City         string
	State        string
	ContactName  string
	ContactPhone string
	ContactEmail string
	RequiredDate time.Time
	Status       Status
	CreatedBy    uuid.UUID
	Donors       []DonorResponseSnapshot
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type DonorResponseSnapshot struct {
	DonorID     uuid.UUID
	Status      ResponseStatus
	ContactedAt time.Time
	UpdatedAt   time.Time
}

// Snapshot copies the aggregate's state; the returned value shares nothing
// mutable with the aggregate.
func (r *Request) Snapshot(now time.Time) Snapshot {
	donors := make([]DonorResponseSnapshot, len(r.donors))
	for i, d := range r.donors {
		donors[i] = DonorResponseSnapshot{
			DonorID:     d.donorID,
			Status:      d.status,
			ContactedAt: d.contactedAt,
			UpdatedAt:   d.updatedAt,
		}
	}
	return Snapshot{
		ID:           r.id,
		PatientName:  r.patientName,
		BloodType:    r.bloodType,
		Units:        r.units.Value(),
		Urgency:      r.urgency,
		HospitalName: r.hospital.name,
		Address:      r.hospital.address,
		City:         r.hospital.city,
		State:        r.hospital.state,
		ContactName:  r.contact.name,
		ContactPhone: r.contact.phone,
		ContactEmail: r.contact.email,
		RequiredDate: r.requiredDate,
		Status:       r.StatusAt(now),
		CreatedBy:    r.createdBy,
		Donors:       donors,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
	}
}
