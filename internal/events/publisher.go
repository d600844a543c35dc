package events

import (
	"context"
	"time"

	"slotboard/pkg/kafka"
	"slotboard/pkg/logger"
	"slotboard/pkg/model"
)

const publishTimeout = 5 * time.Second

// Publisher emits domain events. Publishing is best effort: a broker outage
// must never fail the request that triggered the event.
type Publisher interface {
	BookingCreated(booking *model.Booking, conflictCount int)
	BookingDeleted(booking *model.Booking, removedConflicts int, deletedBy string)
	ConflictResolved(conflict *model.Conflict, resolvedBy string)
	Close() error
}

type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	source   string
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, topic, source string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		source:   source,
		log:      log,
	}
}

func (p *KafkaPublisher) BookingCreated(booking *model.Booking, conflictCount int) {
	p.publish(EventBookingCreated, booking.ID, BookingCreatedEvent{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		UserName:   booking.UserName,
		Title:      booking.Title,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		Conflicts:  conflictCount,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *KafkaPublisher) BookingDeleted(booking *model.Booking, removedConflicts int, deletedBy string) {
	p.publish(EventBookingDeleted, booking.ID, BookingDeletedEvent{
		BookingID:        booking.ID,
		UserID:           booking.UserID,
		RemovedConflicts: removedConflicts,
		DeletedBy:        deletedBy,
		OccurredAt:       time.Now().UTC(),
	})
}

func (p *KafkaPublisher) ConflictResolved(conflict *model.Conflict, resolvedBy string) {
	p.publish(EventConflictResolved, conflict.ID, ConflictResolvedEvent{
		ConflictID: conflict.ID,
		Booking1ID: conflict.Booking1ID,
		Booking2ID: conflict.Booking2ID,
		ResolvedBy: resolvedBy,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// publish fires the event in the background so the caller never blocks on
// the broker. Failures are logged and dropped.
func (p *KafkaPublisher) publish(eventType, key string, payload any) {
	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(p.source).
		WithSchemaVersion("1").
		WithTopic(p.topic).
		Build()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.producer.Publish(ctx, msg); err != nil {
			p.log.Error("Failed to publish event",
				"event_type", eventType,
				"key", key,
				"error", err,
			)
		}
	}()
}

// NoopPublisher drops all events. Used when no brokers are configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) BookingCreated(*model.Booking, int) {}

func (NoopPublisher) BookingDeleted(*model.Booking, int, string) {}

func (NoopPublisher) ConflictResolved(*model.Conflict, string) {}

func (NoopPublisher) Close() error { return nil }
