package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Background job topics on the in-process bus.
const (
	TopicEmbedDocument = "embed.document"
	TopicEmbedTitles   = "embed.titles"
)

type IPublisherService interface {
	SendMessage(ctx context.Context, topic string, payload interface{}) error
}

type publisherService struct {
	publisher message.Publisher
}

func NewPublisherService(publisher message.Publisher) IPublisherService {
	return &publisherService{publisher: publisher}
}

func (p *publisherService) SendMessage(ctx context.Context, topic string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	return p.publisher.Publish(topic, msg)
}
