package request

import (
	"regexp"
	"strings"
)

const (
	MinUnits = 1
	MaxUnits = 10
)

var (
	phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// BloodType is one of the 8 ABO/Rh codes.
type BloodType string

var bloodTypes = map[BloodType]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {},
	"AB+": {}, "AB-": {}, "O+": {}, "O-": {},
}

func NewBloodType(s string) (BloodType, error) {
	bt := BloodType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := bloodTypes[bt]; !ok {
		return "", NewValidationError("bloodType", "must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
	}
	return bt, nil
}

func (b BloodType) String() string {
	return string(b)
}

// Urgency orders requests for matching: critical > urgent > normal.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyCritical Urgency = "critical"
)

func NewUrgency(s string) (Urgency, error) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyCritical:
		return u, nil
	default:
		return "", NewValidationError("urgency", "must be one of normal, urgent, critical")
	}
}

func (u Urgency) String() string {
	return string(u)
}

// Rank gives the sort weight used by the matching query engine.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 3
	case UrgencyUrgent:
		return 2
	default:
		return 1
	}
}

// UnitCount is the number of blood units a request needs, 1 to 10.
type UnitCount struct {
	value int
}

func NewUnitCount(n int) (UnitCount, error) {
	if n < MinUnits || n > MaxUnits {
		return UnitCount{}, NewValidationError("unitsRequired", "must be between 1 and 10")
	}
	return UnitCount{value: n}, nil
}

func (u UnitCount) Value() int {
	return u.value
}

// Hospital is the location a request draws donors to.
type Hospital struct {
	name    string
	address string
	city    string
	state   string
}

func NewHospital(name, address, city, state string) (Hospital, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)

	switch {
	case name == "":
		return Hospital{}, NewValidationError("hospital.name", "is required")
	case address == "":
		return Hospital{}, NewValidationError("hospital.address", "is required")
	case city == "":
		return Hospital{}, NewValidationError("hospital.city", "is required")
	case state == "":
		return Hospital{}, NewValidationError("hospital.state", "is required")
	}

	return Hospital{name: name, address: address, city: city, state: state}, nil
}

func (h Hospital) Name() string    { return h.name }
func (h Hospital) Address() string { return h.address }
func (h Hospital) City() string    { return h.city }
func (h Hospital) State() string   { return h.state }

// Contact is who donors reach out to. Email is optional.
type Contact struct {
	name  string
	phone string
	email string
}

func NewContact(name, phone, email string) (Contact, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(email)

	if name == "" {
		return Contact{}, NewValidationError("contact.name", "is required")
	}
	if !phoneRegex.MatchString(phone) {
		return Contact{}, NewValidationError("contact.phone", "must be 10 digits")
	}
	if email != "" && !emailRegex.MatchString(email) {
		return Contact{}, NewValidationError("contact.email", "must be a valid email address")
	}

	return Contact{name: name, phone: phone, email: email}, nil
}

func (c Contact) Name() string  { return c.name }
func (c Contact) Phone() string { return c.phone }
func (c Contact) Email() string { return c.email }
