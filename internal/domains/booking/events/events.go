// Package events publishes booking lifecycle changes to Kafka, keyed by
// booking id.
package events

import (
	"context"
	"fmt"
	"time"
	"tourbook/config"
	"tourbook/infras/kafka"
	"tourbook/infras/otel"
	"tourbook/internal/domains/booking/model"
	"tourbook/shared/constant"
	"tourbook/shared/timezone"

	"github.com/rs/zerolog/log"
)

type Type string

const (
	TypeCreated        Type = "booking.created"
	TypeStatusChanged  Type = "booking.status_changed"
	TypePaymentChanged Type = "booking.payment_changed"
	TypeDepositChanged Type = "booking.deposit_changed"
	TypeNotesChanged   Type = "booking.notes_changed"
	TypeAssigned       Type = "booking.assigned"
)

const defaultBookingTopic = "bookings"

type Event struct {
	Type          Type                `json:"type"`
	BookingID     string              `json:"booking_id"`
	ActorID       string              `json:"actor_id,omitempty"`
	Status        model.Status        `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	DepositPaid   bool                `json:"deposit_paid"`
	AssignedToID  *string             `json:"assigned_to_id,omitempty"`
	Version       int                 `json:"version"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// New snapshots booking after a change made by actorID.
func New(eventType Type, booking model.Booking, actorID string) Event {
	return Event{
		Type:          eventType,
		BookingID:     booking.ID,
		ActorID:       actorID,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		DepositPaid:   booking.DepositPaid,
		AssignedToID:  booking.AssignedToID,
		Version:       booking.Version,
		OccurredAt:    timezone.Now(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type publisherImpl struct {
	client kafka.Client
	topic  string
	otel   otel.Otel
}

func NewPublisher(client kafka.Client, cfg *config.Config, otel otel.Otel) Publisher {
	topic := cfg.Kafka.BookingTopic
	if topic == "" {
		topic = defaultBookingTopic
	}

	return &publisherImpl{
		client: client,
		topic:  topic,
		otel:   otel,
	}
}

func (p *publisherImpl) Publish(ctx context.Context, event Event) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".Publish")
	defer scope.End()

	scope.SetAttributes(map[string]any{
		"event.type":       string(event.Type),
		"event.booking_id": event.BookingID,
	})

	err = p.client.SendMessages(ctx, p.topic, kafka.Message{Key: event.BookingID, Value: event})
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("type", string(event.Type)).Str("booking_id", event.BookingID).Msg("failed to publish booking event")

		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	return nil
}
