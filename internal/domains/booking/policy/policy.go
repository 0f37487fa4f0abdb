// Package policy holds the authorization rules for booking lifecycle operations.
// Every rule is a pure function of the actor and the booking as currently stored.
package policy

import (
	"tourbook/internal/domains/booking/model"
	"tourbook/shared/constant"
)

// Actor is the authenticated caller, with its role as currently stored.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == constant.RoleAdmin
}

func (a Actor) IsStaff() bool {
	return a.Role == constant.RoleStaff
}

// CanActOn gates every booking mutation except creation and assignment: admins
// may act on any booking, staff only on bookings assigned to them.
func CanActOn(booking model.Booking, actor Actor) bool {
	if actor.IsAdmin() {
		return true
	}

	return booking.IsAssignedTo(actor.ID)
}

// CanAssign allows admins only, including over the currently assigned worker.
func CanAssign(actor Actor) bool {
	return actor.IsAdmin()
}

// CanSetPaymentStatus narrows CanActOn: non-admins may only move payment
// forward along unpaid -> partially_paid -> paid.
func CanSetPaymentStatus(booking model.Booking, actor Actor, target model.PaymentStatus) bool {
	if !CanActOn(booking, actor) {
		return false
	}

	return actor.IsAdmin() || target.IsForwardFrom(booking.PaymentStatus)
}

// CanSetStatus narrows CanActOn: only admins may reopen a completed or
// cancelled booking. Repeating the current status is always allowed.
func CanSetStatus(booking model.Booking, actor Actor, target model.Status) bool {
	if !CanActOn(booking, actor) {
		return false
	}

	return actor.IsAdmin() || !booking.Status.IsClosed() || target == booking.Status
}

func CanViewWorker(actor Actor, workerID string) bool {
	return actor.IsAdmin() || (actor.ID != "" && actor.ID == workerID)
}

func CanViewAdminStats(actor Actor) bool {
	return actor.IsAdmin()
}
