package producer

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"go-permit/internal/messaging/kafka"
)

func publishEvent(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	msg := kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.RequestID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "channel", Value: []byte(event.Channel)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
