package response

import (
	"time"

	"bloodconnect/internal/usecase/queries"

	"github.com/google/uuid"
)

type HospitalResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

type ContactResponse struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}

type DonorEntryResponse struct {
	Donor       uuid.UUID `json:"donor"`
	Status      string    `json:"status"`
	ContactedAt time.Time `json:"contactedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type RequestResponse struct {
	ID            uuid.UUID            `json:"id"`
	PatientName   string               `json:"patientName"`
	BloodType     string               `json:"bloodType"`
	UnitsRequired int                  `json:"unitsRequired"`
	Urgency       string               `json:"urgency"`
	Hospital      HospitalResponse     `json:"hospital"`
	Contact       ContactResponse      `json:"contact"`
	RequiredDate  time.Time            `json:"requiredDate"`
	Status        string               `json:"status"`
	CreatedBy     uuid.UUID            `json:"createdBy"`
	Donors        []DonorEntryResponse `json:"donors"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type RequestListResponse struct {
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

type SearchResponse struct {
	Data       []*RequestListResponse `json:"data"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}

func FromRequestView(rm *queries.RequestView) *RequestResponse {
	donors := make([]DonorEntryResponse, 0, len(rm.Donors))
	for _, d := range rm.Donors {
		donors = append(donors, DonorEntryResponse{
			Donor:       d.Donor,
			Status:      d.Status,
			ContactedAt: d.ContactedAt,
			UpdatedAt:   d.UpdatedAt,
		})
	}

	return &RequestResponse{
		ID:            rm.ID,
		PatientName:   rm.PatientName,
		BloodType:     rm.BloodType,
		UnitsRequired: rm.UnitsRequired,
		Urgency:       rm.Urgency,
		Hospital: HospitalResponse{
			Name:    rm.Hospital.Name,
			Address: rm.Hospital.Address,
			City:    rm.Hospital.City,
			State:   rm.Hospital.State,
		},
		Contact: ContactResponse{
			Name:  rm.Contact.Name,
			Phone: rm.Contact.Phone,
			Email: rm.Contact.Email,
		},
		RequiredDate: rm.RequiredDate,
		Status:       rm.Status,
		CreatedBy:    rm.CreatedBy,
		Donors:       donors,
		CreatedAt:    rm.CreatedAt,
		UpdatedAt:    rm.UpdatedAt,
	}
}

func FromRequestListItem(rm *queries.RequestListItem) *RequestListResponse {
	return &RequestListResponse{
		ID:            rm.ID,
		PatientName:   rm.PatientName,
		BloodType:     rm.BloodType,
		UnitsRequired: rm.UnitsRequired,
		Urgency:       rm.Urgency,
		City:          rm.City,
		State:         rm.State,
		RequiredDate:  rm.RequiredDate,
		Status:        rm.Status,
		CreatedAt:     rm.CreatedAt,
	}
}

func FromSearchPage(page *queries.SearchPage) *SearchResponse {
	items := make([]*RequestListResponse, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, FromRequestListItem(it))
	}
	return &SearchResponse{
		Data:       items,
		NextCursor: page.NextCursor,
	}
}
