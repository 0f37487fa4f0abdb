package service

import (
	"context"
	"fmt"
	"tourbook/internal/domains/booking/model"
	"tourbook/internal/domains/booking/model/dto"
	"tourbook/internal/domains/booking/policy"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/money"
	"tourbook/shared/timezone"

	"github.com/rs/zerolog/log"
)

// AdminStats aggregates every booking in a single read, so the counters are
// consistent with each other.
func (s *serviceImpl) AdminStats(ctx context.Context) (res dto.AdminStatsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.AdminStats")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	if !policy.CanViewAdminStats(actor) {
		return res, errForbiddenStats
	}

	bookings, err := s.repo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{},
		model.FieldID,
		model.FieldStatus,
		model.FieldPaymentStatus,
		model.FieldAssignedToID,
		model.FieldTotalAmount,
		model.FieldCreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings for statistics")

		return res, fmt.Errorf("failed to get bookings for statistics: %w", err)
	}

	res.ByStatus = make(map[string]int, len(model.Statuses()))
	for _, status := range model.Statuses() {
		res.ByStatus[status.String()] = 0
	}

	res.ByPaymentStatus = make(map[string]int, len(model.PaymentStatuses()))
	for _, status := range model.PaymentStatuses() {
		res.ByPaymentStatus[status.String()] = 0
	}

	dayStart, dayEnd := timezone.Today()

	for _, booking := range bookings {
		res.TotalBookings++

		// created_at is an instant, unlike start_date.
		if !booking.CreatedAt.Before(dayStart) && !booking.CreatedAt.After(dayEnd) {
			res.CreatedToday++
		}

		res.ByStatus[booking.Status.String()]++
		res.ByPaymentStatus[booking.PaymentStatus.String()]++

		if booking.AssignedToID == nil {
			res.Unassigned++
		}

		if !countsAsRevenue(booking) {
			continue
		}

		cents, err := money.ParseCents(booking.TotalAmount)
		if err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID).Msg("skipping unparsable total amount")

			continue
		}

		total, err := money.Add(res.TotalRevenueCents, cents)
		if err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID).Msg("skipping total amount that overflows revenue")

			continue
		}

		res.TotalRevenueCents = total
	}

	res.TotalRevenue = money.FormatCents(res.TotalRevenueCents)

	return res, nil
}

func countsAsRevenue(booking model.Booking) bool {
	return booking.Status != model.StatusCancelled && booking.PaymentStatus != model.PaymentStatusRefunded
}
