// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/segovia241/ia-erp-universal/internal/pkg/logger"
	"github.com/segovia241/ia-erp-universal/pkg/events"
	pktNats "github.com/segovia241/ia-erp-universal/pkg/nats"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains resolver audit events off the in-process bus, writes
// them to the audit log, and mirrors them to NATS when a publisher is wired.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	publisher *pktNats.Publisher
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	publisher *pktNats.Publisher,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		publisher: publisher,
		logger:    sysLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

type auditEnvelope struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var envelope auditEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.logger.Error("AUDIT", "failed to unmarshal audit event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("AUDIT", envelope.Type, envelope.Payload)

	if cs.publisher != nil {
		event := events.BaseEvent{Type: envelope.Type, Data: envelope.Payload, OccurredAt: envelope.OccurredAt}
		if err := cs.publisher.Publish(ctx, event); err != nil {
			cs.logger.Warn("AUDIT", "NATS mirror failed", map[string]interface{}{"error": err.Error()})
		}
	}

	msg.Ack()
}
