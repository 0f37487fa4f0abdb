package model

import (
	"fmt"
	"strings"
	"tourbook/shared/failure"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var statuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}

	return false
}

func (s Status) String() string {
	return string(s)
}

// IsClosed reports whether the booking left the normal flow, completed or cancelled.
func (s Status) IsClosed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus accepts the four lifecycle states, case-insensitively.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", failure.InvalidArgument(fmt.Sprintf("invalid booking status: %q", value)) //nolint:wrapcheck
	}

	return status, nil
}

// Statuses lists every lifecycle state in declaration order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

var paymentStatuses = []PaymentStatus{PaymentStatusUnpaid, PaymentStatusPartiallyPaid, PaymentStatusPaid, PaymentStatusRefunded}

func (p PaymentStatus) IsValid() bool {
	return p.rank() >= 0
}

func (p PaymentStatus) String() string {
	return string(p)
}

// rank orders payment states along unpaid -> partially_paid -> paid -> refunded.
func (p PaymentStatus) rank() int {
	switch p {
	case PaymentStatusUnpaid:
		return 0
	case PaymentStatusPartiallyPaid:
		return 1
	case PaymentStatusPaid:
		return 2
	case PaymentStatusRefunded:
		return 3
	}

	return -1
}

// IsForwardFrom reports whether moving from -> p follows the common path
// unpaid -> partially_paid -> paid. Staying put counts as forward; refunds and
// moves backwards do not.
func (p PaymentStatus) IsForwardFrom(from PaymentStatus) bool {
	if p == from {
		return true
	}

	if p == PaymentStatusRefunded || from == PaymentStatusRefunded {
		return false
	}

	return p.rank() > from.rank()
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", failure.InvalidArgument(fmt.Sprintf("invalid payment status: %q", value)) //nolint:wrapcheck
	}

	return status, nil
}

func PaymentStatuses() []PaymentStatus {
	return append([]PaymentStatus(nil), paymentStatuses...)
}

type PaymentMethod string

const (
	PaymentMethodPlastic PaymentMethod = "plastic"
	PaymentMethodVisa    PaymentMethod = "visa"
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodLater   PaymentMethod = "later"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodPlastic, PaymentMethodVisa, PaymentMethodCash, PaymentMethodLater:
		return true
	}

	return false
}

func (m PaymentMethod) String() string {
	return string(m)
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	if !method.IsValid() {
		return "", failure.InvalidArgument(fmt.Sprintf("invalid payment method: %q", value)) //nolint:wrapcheck
	}

	return method, nil
}
