package service

import (
	"context"
	"fmt"
	"tourbook/internal/domains/booking/events"
	"tourbook/internal/domains/booking/model"
	"tourbook/internal/domains/booking/policy"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/timezone"

	"github.com/rs/zerolog/log"
)

// transition validates and applies one change to the booking as currently
// stored. It must not have side effects: it runs again after a lost race.
type transition func(booking model.Booking, actor policy.Actor) (model.Booking, error)

// mutate runs a read-authorize-apply-write cycle on one booking. The write only
// lands if the version read is still current, otherwise the whole cycle is
// retried against fresh state.
func (s *serviceImpl) mutate(ctx context.Context, id string, eventType events.Type, apply transition) (model.Booking, error) {
	attempts := s.mutationAttempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		current, err := s.load(ctx, id)
		if err != nil {
			return current, err
		}

		actor, err := s.actor(ctx)
		if err != nil {
			return current, err
		}

		next, err := apply(current, actor)
		if err != nil {
			return current, err
		}

		next = next.Touch(timezone.Now(), actor.ID)

		written, err := s.repo.CompareAndUpdate(ctx, next.MutableFields(), versionFilter(id, current.Version))
		if err != nil {
			log.Error().Err(err).Str("booking_id", id).Msg("failed to update booking")

			return current, fmt.Errorf("failed to update booking: %w", err)
		}

		if written {
			s.publish(ctx, events.New(eventType, next, actor.ID))

			return next, nil
		}

		log.Warn().
			Str("booking_id", id).
			Int("attempt", attempt).
			Int("version", current.Version).
			Msg("booking changed during update, retrying")
	}

	return model.Booking{}, errConcurrentMutation
}

func (s *serviceImpl) mutationAttempts() int {
	if s.cfg.App.Booking.MutationAttempts > 0 {
		return s.cfg.App.Booking.MutationAttempts
	}

	return constant.DefaultMutationAttempts
}

func versionFilter(id string, version int) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldID,
				Value:    id,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
			gDto.Filter{
				ArgName:  "expected_version",
				Field:    model.FieldVersion,
				Value:    version,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}
}
