package model

import (
	"time"
	"tourbook/shared/constant"
	"tourbook/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID              = "id"
	FieldTourID          = "tour_id"
	FieldFullName        = "full_name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldNumberOfPeople  = "number_of_people"
	FieldSpecialRequests = "special_requests"
	FieldStartDate       = "start_date"
	FieldStatus          = "status"
	FieldPaymentMethod   = "payment_method"
	FieldPaymentStatus   = "payment_status"
	FieldDepositPaid     = "deposit_paid"
	FieldPaymentDetails  = "payment_details"
	FieldTotalAmount     = "total_amount"
	FieldNotes           = "notes"
	FieldAssignedToID    = "assigned_to_id"
	FieldCompletedAt     = "completed_at"
	FieldVersion         = "version"
	FieldCreatedAt       = "created_at"
)

type Booking struct {
	ID              string        `db:"id"`
	TourID          string        `db:"tour_id"`
	FullName        string        `db:"full_name"`
	Email           string        `db:"email"`
	Phone           string        `db:"phone"`
	NumberOfPeople  int           `db:"number_of_people"`
	SpecialRequests *string       `db:"special_requests"`
	StartDate       time.Time     `db:"start_date"`
	Status          Status        `db:"status"`
	PaymentMethod   PaymentMethod `db:"payment_method"`
	PaymentStatus   PaymentStatus `db:"payment_status"`
	DepositPaid     bool          `db:"deposit_paid"`
	PaymentDetails  *string       `db:"payment_details"`
	TotalAmount     string        `db:"total_amount"`
	Notes           *string       `db:"notes"`
	AssignedToID    *string       `db:"assigned_to_id"`
	CompletedAt     *time.Time    `db:"completed_at"`
	Version         int           `db:"version"`
	model.Metadata
}

// IsAssignedTo reports whether the booking is currently assigned to userID.
func (b Booking) IsAssignedTo(userID string) bool {
	return b.AssignedToID != nil && userID != "" && *b.AssignedToID == userID
}

// Touch stamps the modification metadata and bumps the version.
func (b Booking) Touch(now time.Time, actorID string) Booking {
	b.ModifiedAt = now
	b.ModifiedBy = actorID
	b.Version++

	return b
}

// MutableFields returns every column a lifecycle operation may change, taken
// from b. Callers must guard the write with the previous version.
func (b Booking) MutableFields() map[string]any {
	return map[string]any{
		FieldStatus:              b.Status,
		FieldPaymentStatus:       b.PaymentStatus,
		FieldDepositPaid:         b.DepositPaid,
		FieldNotes:               b.Notes,
		FieldAssignedToID:        b.AssignedToID,
		FieldCompletedAt:         b.CompletedAt,
		FieldVersion:             b.Version,
		constant.FieldModifiedAt: b.ModifiedAt,
		constant.FieldModifiedBy: b.ModifiedBy,
	}
}
