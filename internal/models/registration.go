package models

import "time"

// Registration states.
const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// PendingRegistration is a self-registered employee awaiting admin review.
type PendingRegistration struct {
	ID         string    `json:"id"`
	Employee   Employee  `json:"employee"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	ReviewedBy string    `json:"reviewedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	ReviewedAt time.Time `json:"reviewedAt,omitempty"`
}

// The pending document stores the employee fields flat, alongside the review state.
func (p PendingRegistration) Fields() map[string]any {
	fields := p.Employee.Fields()
	fields["status"] = p.Status
	fields["createdAt"] = p.CreatedAt
	if p.Reason != "" {
		fields["reason"] = p.Reason
	}
	if p.ReviewedBy != "" {
		fields["reviewedBy"] = p.ReviewedBy
		fields["reviewedAt"] = p.ReviewedAt
	}
	return fields
}

func RegistrationFromMap(id string, m map[string]any) PendingRegistration {
	return PendingRegistration{
		ID:         id,
		Employee:   EmployeeFromMap("", m),
		Status:     stringValue(m, "status"),
		Reason:     stringValue(m, "reason"),
		ReviewedBy: stringValue(m, "reviewedBy"),
		CreatedAt:  timeValue(m, "createdAt"),
		ReviewedAt: timeValue(m, "reviewedAt"),
	}
}
