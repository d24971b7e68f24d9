package request

import (
	"strings"
	"time"

	"bloodconnect/internal/usecase/commands"

	"github.com/google/uuid"
)

type HospitalPayload struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
}

type ContactPayload struct {
	Name  string  `json:"name" binding:"required"`
	Phone string  `json:"phone" binding:"required"`
	Email *string `json:"email,omitempty"`
}

type CreateRequestRequest struct {
	PatientName   string          `json:"patientName" binding:"required"`
	BloodType     string          `json:"bloodType" binding:"required"`
	UnitsRequired int             `json:"unitsRequired" binding:"required"`
	Urgency       string          `json:"urgency" binding:"required"`
	Hospital      HospitalPayload `json:"hospital" binding:"required"`
	Contact       ContactPayload  `json:"contact" binding:"required"`
	RequiredDate  time.Time       `json:"requiredDate" binding:"required"`
}

func (r CreateRequestRequest) ToInput(requesterID uuid.UUID) commands.CreateRequestInput {
	email := ""
	if r.Contact.Email != nil {
		email = strings.TrimSpace(*r.Contact.Email)
	}

	return commands.CreateRequestInput{
		RequesterID:     requesterID,
		PatientName:     r.PatientName,
		BloodType:       r.BloodType,
		UnitsRequired:   r.UnitsRequired,
		Urgency:         r.Urgency,
		HospitalName:    r.Hospital.Name,
		HospitalAddress: r.Hospital.Address,
		HospitalCity:    r.Hospital.City,
		HospitalState:   r.Hospital.State,
		ContactName:     r.Contact.Name,
		ContactPhone:    r.Contact.Phone,
		ContactEmail:    email,
		RequiredDate:    r.RequiredDate,
	}
}

type AdvanceResponseRequest struct {
	Status string `json:"status" binding:"required"`
}
