package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side). Field names follow the externally stable
// request document shape.
type RequestView struct {
	ID            uuid.UUID        `json:"id"`
	PatientName   string           `json:"patientName"`
	BloodType     string           `json:"bloodType"`
	UnitsRequired int              `json:"unitsRequired"`
	Urgency       string           `json:"urgency"`
	Hospital      HospitalView     `json:"hospital"`
	Contact       ContactView      `json:"contact"`
	RequiredDate  time.Time        `json:"requiredDate"`
	Status        string           `json:"status"`
	CreatedBy     uuid.UUID        `json:"createdBy"`
	Donors        []DonorEntryView `json:"donors"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

type HospitalView struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

type ContactView struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}

type DonorEntryView struct {
	Donor       uuid.UUID `json:"donor"`
	Status      string    `json:"status"`
	ContactedAt time.Time `json:"contactedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RequestListItem is the compact row returned by search.
type RequestListItem struct {
	ID            uuid.UUID `json:"id"`
	PatientName   string    `json:"patientName"`
	BloodType     string    `json:"bloodType"`
	UnitsRequired int       `json:"unitsRequired"`
	Urgency       string    `json:"urgency"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	RequiredDate  time.Time `json:"requiredDate"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SearchFilter narrows the open-request listing. Nil fields match anything;
// a nil Status means open requests only.
type SearchFilter struct {
	BloodType *string
	City      *string
	State     *string
	Urgency   *string
	Status    *string
}
