package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"leela_client/internal/domain/event"
)

type EventPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.SugaredLogger
}

func NewEventPublisher(producer sarama.SyncProducer, topic string, log *zap.SugaredLogger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		topic:    topic,
		log:      log,
	}
}

// Publish sends one event keyed by room (or game) id so events of the same
// room land on the same partition.
func (p *EventPublisher) Publish(eventType, roomID string, data map[string]any) error {
	evt := event.Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RoomID:    roomID,
		Data:      data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(roomID),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s event: %w", eventType, err)
	}

	p.log.Debugw("event published", "type", eventType, "roomId", roomID, "partition", partition, "offset", offset)
	return nil
}
