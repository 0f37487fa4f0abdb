package model

import (
	"strings"
	"time"
	"tourbook/shared/failure"
)

const depositKeyword = "deposit"

var (
	ErrDepositNotApplicable = failure.InvalidOperation("deposit status is only applicable for cash payments")
	ErrInvalidPeople        = failure.InvalidArgument("number of people must be positive")
	ErrInvalidStartDate     = failure.InvalidArgument("start date must be formatted as YYYY-MM-DD")
	ErrCancelledNotComplete = failure.InvalidOperation("a cancelled booking cannot be completed")
)

// MentionsDeposit reports whether free-text payment details ask for a deposit.
func MentionsDeposit(details *string) bool {
	return details != nil && strings.Contains(strings.ToLower(*details), depositKeyword)
}

// InitialPayment derives the payment state of a new booking from its method.
func InitialPayment(method PaymentMethod, details *string) (PaymentStatus, bool) {
	switch method {
	case PaymentMethodPlastic, PaymentMethodVisa:
		return PaymentStatusPaid, false
	case PaymentMethodCash:
		if MentionsDeposit(details) {
			return PaymentStatusPartiallyPaid, true
		}

		return PaymentStatusUnpaid, false
	default:
		return PaymentStatusUnpaid, false
	}
}

// WithPaymentStatus sets the payment status. Paying a cash booking in full
// also marks its deposit as paid.
func (b Booking) WithPaymentStatus(status PaymentStatus) Booking {
	b.PaymentStatus = status

	if status == PaymentStatusPaid && b.PaymentMethod == PaymentMethodCash {
		b.DepositPaid = true
	}

	return b
}

// WithDeposit toggles the deposit flag of a cash booking. Paying the deposit on
// an unpaid booking promotes it to partially paid.
func (b Booking) WithDeposit(paid bool) (Booking, error) {
	if b.PaymentMethod != PaymentMethodCash {
		return b, ErrDepositNotApplicable
	}

	b.DepositPaid = paid

	if paid && b.PaymentStatus == PaymentStatusUnpaid {
		b.PaymentStatus = PaymentStatusPartiallyPaid
	}

	return b, nil
}

// WithStatus moves the booking to status, routing completion through Complete.
// Leaving completed keeps completedAt. A cancelled booking has to be reopened
// before it can be completed.
func (b Booking) WithStatus(status Status, now time.Time) (Booking, error) {
	if b.Status == StatusCancelled && status == StatusCompleted {
		return b, ErrCancelledNotComplete
	}

	if status == StatusCompleted {
		return b.Complete(now), nil
	}

	b.Status = status

	return b, nil
}

// Complete marks the booking completed and stamps completedAt the first time.
func (b Booking) Complete(now time.Time) Booking {
	b.Status = StatusCompleted

	if b.CompletedAt == nil {
		completedAt := now
		b.CompletedAt = &completedAt
	}

	return b
}

func (b Booking) WithNotes(notes *string) Booking {
	b.Notes = notes

	return b
}

// WithAssignee assigns the booking to workerID, nil clears the assignment.
func (b Booking) WithAssignee(workerID *string) Booking {
	b.AssignedToID = workerID

	return b
}
