package kafka

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/logx"
)

// Publisher emits delivery lifecycle events to Kafka. It implements the
// delivery service's Notifier contract: publish failures are logged and
// never surfaced to the request that caused them.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   logx.Logger
	now      func() time.Time
}

// NewPublisher creates a Kafka publisher. Returns nil when brokers or the
// topic are not configured, so the rest of the wiring can treat events as
// fire-and-forget.
func NewPublisher(brokers []string, topic string, logger logx.Logger) (*Publisher, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{producer: producer, topic: topic, logger: logger, now: time.Now}, nil
}

// RideRequested publishes the creation of a pending delivery.
func (p *Publisher) RideRequested(d *domain.Delivery) {
	if p == nil {
		return
	}
	p.publish(d.ID, transitionDTO(domain.TransitionEvent{
		DeliveryID: d.ID,
		To:         domain.StatusPending,
		ActorRole:  domain.RoleCustomer,
		OccurredAt: p.now(),
	}))
}

// Transition publishes a persisted lifecycle transition.
func (p *Publisher) Transition(d *domain.Delivery, ev domain.TransitionEvent) {
	if p == nil {
		return
	}
	p.publish(d.ID, transitionDTO(ev))
}

func (p *Publisher) publish(deliveryID int64, dto TransitionDTO) {
	value, err := json.Marshal(dto)
	if err != nil {
		p.logger.Error("kafka: marshal event", logx.Err(err))
		return
	}
	// key by delivery so a single ride's events stay ordered
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(deliveryID, 10)),
		Value: sarama.ByteEncoder(value),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.logger.Error("kafka: publish event",
			logx.Int64("delivery_id", deliveryID),
			logx.String("to", dto.To),
			logx.Err(err),
		)
	}
}

// Close shuts the underlying producer down.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
