package request

// Status is the lifecycle state of a blood request.
type Status string

const (
	StatusOpen      Status = "open"
	StatusFulfilled Status = "fulfilled"
	StatusExpired   Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusFulfilled, StatusExpired:
		return true
	default:
		return false
	}
}

// Terminal statuses never change again through ledger mutations.
func (s Status) IsTerminal() bool {
	return s == StatusFulfilled || s == StatusExpired
}

// ResponseStatus is the state of a single donor response within a request.
type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseAccepted ResponseStatus = "accepted"
	ResponseRejected ResponseStatus = "rejected"
	ResponseDonated  ResponseStatus = "donated"
)

func (s ResponseStatus) String() string {
	return string(s)
}

func (s ResponseStatus) IsValid() bool {
	switch s {
	case ResponsePending, ResponseAccepted, ResponseRejected, ResponseDonated:
		return true
	default:
		return false
	}
}

// Committed reports whether the response counts toward the request's
// required unit count.
func (s ResponseStatus) Committed() bool {
	return s == ResponseAccepted || s == ResponseDonated
}

// Allowed edges: pending→accepted, pending→rejected, accepted→donated.
func canTransition(from, to ResponseStatus) bool {
	switch from {
	case ResponsePending:
		return to == ResponseAccepted || to == ResponseRejected
	case ResponseAccepted:
		return to == ResponseDonated
	default:
		return false
	}
}
