//go:build unit || e2e

package builder

import (
	"time"

	domrequest "bloodconnect/internal/domain/request"
	reqdto "bloodconnect/internal/handler/dto/request"
	"bloodconnect/internal/usecase/commands"
	"bloodconnect/internal/usecase/queries"

	"github.com/google/uuid"
)

type RequestBuilder struct {
	ID            uuid.UUID
	CreatedBy     uuid.UUID
	PatientName   string
	BloodType     string
	UnitsRequired int
	Urgency       string
	HospitalName  string
	Address       string
	City          string
	State         string
	ContactName   string
	ContactPhone  string
	ContactEmail  string
	RequiredDate  time.Time
	Now           time.Time
}

func NewRequestBuilder() *RequestBuilder {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &RequestBuilder{
		ID:            uuid.New(),
		CreatedBy:     uuid.New(),
		PatientName:   "John Doe",
		BloodType:     "O+",
		UnitsRequired: 2,
		Urgency:       "urgent",
		HospitalName:  "City General Hospital",
		Address:       "12 Main Street",
		City:          "Springfield",
		State:         "IL",
		ContactName:   "Jane Doe",
		ContactPhone:  "5551234567",
		ContactEmail:  "jane@example.com",
		RequiredDate:  now.Add(72 * time.Hour),
		Now:           now,
	}
}

func (b *RequestBuilder) With(mutate func(*RequestBuilder)) *RequestBuilder {
	mutate(b)
	return b
}

func (b *RequestBuilder) BuildDomain() (*domrequest.Request, error) {
	bloodType, err := domrequest.NewBloodType(b.BloodType)
	if err != nil {
		return nil, err
	}
	units, err := domrequest.NewUnitCount(b.UnitsRequired)
	if err != nil {
		return nil, err
	}
	urgency, err := domrequest.NewUrgency(b.Urgency)
	if err != nil {
		return nil, err
	}
	hospital, err := domrequest.NewHospital(b.HospitalName, b.Address, b.City, b.State)
	if err != nil {
		return nil, err
	}
	contact, err := domrequest.NewContact(b.ContactName, b.ContactPhone, b.ContactEmail)
	if err != nil {
		return nil, err
	}
	return domrequest.NewRequest(b.CreatedBy, b.PatientName, bloodType, units, urgency, hospital, contact, b.RequiredDate, b.Now)
}

func (b *RequestBuilder) BuildCreateInput() commands.CreateRequestInput {
	return commands.CreateRequestInput{
		RequesterID:     b.CreatedBy,
		PatientName:     b.PatientName,
		BloodType:       b.BloodType,
		UnitsRequired:   b.UnitsRequired,
		Urgency:         b.Urgency,
		HospitalName:    b.HospitalName,
		HospitalAddress: b.Address,
		HospitalCity:    b.City,
		HospitalState:   b.State,
		ContactName:     b.ContactName,
		ContactPhone:    b.ContactPhone,
		ContactEmail:    b.ContactEmail,
		RequiredDate:    b.RequiredDate,
	}
}

func (b *RequestBuilder) BuildCreateRequestDTO() reqdto.CreateRequestRequest {
	email := b.ContactEmail
	return reqdto.CreateRequestRequest{
		PatientName:   b.PatientName,
		BloodType:     b.BloodType,
		UnitsRequired: b.UnitsRequired,
		Urgency:       b.Urgency,
		Hospital: reqdto.HospitalPayload{
			Name:    b.HospitalName,
			Address: b.Address,
			City:    b.City,
			State:   b.State,
		},
		Contact: reqdto.ContactPayload{
			Name:  b.ContactName,
			Phone: b.ContactPhone,
			Email: &email,
		},
		RequiredDate: b.RequiredDate,
	}
}

func (b *RequestBuilder) BuildView() *queries.RequestView {
	email := b.ContactEmail
	return &queries.RequestView{
		ID:            b.ID,
		PatientName:   b.PatientName,
		BloodType:     b.BloodType,
		UnitsRequired: b.UnitsRequired,
		Urgency:       b.Urgency,
		Hospital: queries.HospitalView{
			Name:    b.HospitalName,
			Address: b.Address,
			City:    b.City,
			State:   b.State,
		},
		Contact: queries.ContactView{
			Name:  b.ContactName,
			Phone: b.ContactPhone,
			Email: &email,
		},
		RequiredDate: b.RequiredDate,
		Status:       "open",
		CreatedBy:    b.CreatedBy,
		Donors:       []queries.DonorEntryView{},
		CreatedAt:    b.Now,
		UpdatedAt:    b.Now,
	}
}

func (b *RequestBuilder) BuildListItem() *queries.RequestListItem {
	return &queries.RequestListItem{
		ID:            b.ID,
		PatientName:   b.PatientName,
		BloodType:     b.BloodType,
		UnitsRequired: b.UnitsRequired,
		Urgency:       b.Urgency,
		City:          b.City,
		State:         b.State,
		RequiredDate:  b.RequiredDate,
		Status:        "open",
		CreatedAt:     b.Now,
	}
}
