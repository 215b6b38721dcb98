package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Rani-Boora/campus-event-hub/internal/models"
)

// Topics names the streams the producer writes to. The names come from
// configuration so that deployments can rename them without a rebuild.
type Topics struct {
	RegistrationCreated   string
	RegistrationStatus    string
	RegistrationCancelled string
}

// Names returns the topic list in ensure-at-startup order.
func (t Topics) Names() []string {
	return []string{t.RegistrationCreated, t.RegistrationStatus, t.RegistrationCancelled}
}

// RegistrationEvent is the payload streamed on every registration lifecycle change.
type RegistrationEvent struct {
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	OldStatus      string    `json:"old_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Producer struct {
	Writer *kafka.Writer
	Topics Topics
}

func NewProducer(brokers []string, topics Topics) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

func (p *Producer) publish(topic string, event RegistrationEvent) error {
	msg, err := newMessage(topic, event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(), msg)
}

func newMessage(topic string, event RegistrationEvent) (kafka.Message, error) {
	event.OccurredAt = time.Now()
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(event.EventID),
		Value: msgBytes,
	}, nil
}

// PublishRegistrationCreated streams a new pending registration.
func (p *Producer) PublishRegistrationCreated(reg models.Registration) error {
	return p.publish(p.Topics.RegistrationCreated, RegistrationEvent{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		UserID:         reg.UserID,
		Status:         reg.Status,
	})
}

// PublishRegistrationStatusChanged streams an organizer-driven transition.
func (p *Producer) PublishRegistrationStatusChanged(reg models.Registration, oldStatus string) error {
	return p.publish(p.Topics.RegistrationStatus, RegistrationEvent{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		UserID:         reg.UserID,
		Status:         reg.Status,
		OldStatus:      oldStatus,
	})
}

// PublishRegistrationCancelled streams an owner cancellation (row deletion).
func (p *Producer) PublishRegistrationCancelled(reg models.Registration) error {
	return p.publish(p.Topics.RegistrationCancelled, RegistrationEvent{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		UserID:         reg.UserID,
		Status:         models.StatusCancelled,
	})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
