package service

import (
	"context"

	"library-assistant-be/internal/pkg/logger"
	"library-assistant-be/pkg/events"
	pktNats "library-assistant-be/pkg/nats"
)

const auditDurable = "assistant-audit"

// EventSubscriber is satisfied by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

type IAuditService interface {
	Start() error
	Handle(ctx context.Context, event events.Event) error
}

// auditService writes every domain event to a dedicated log file, apart from
// the application log.
type auditService struct {
	subscriber EventSubscriber
	logger     logger.ILogger
}

func NewAuditService(subscriber EventSubscriber, auditLogger logger.ILogger) IAuditService {
	return &auditService{subscriber: subscriber, logger: auditLogger}
}

func (s *auditService) Start() error {
	return s.subscriber.Subscribe(pktNats.Subject(">"), auditDurable, s.Handle)
}

func (s *auditService) Handle(ctx context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["occurred_at"] = event.Timestamp()

	if outcome, _ := details["outcome"].(string); event.EventType() == events.AssistantTurnCompleted && outcome == "failed" {
		s.logger.Warn("AUDIT", event.EventType(), details)
		return nil
	}
	s.logger.Info("AUDIT", event.EventType(), details)
	return nil
}
