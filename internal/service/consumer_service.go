package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"library-assistant-be/internal/dto"
	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/pkg/logger"
	"library-assistant-be/internal/repository/specification"
	"library-assistant-be/internal/repository/unitofwork"
	"library-assistant-be/pkg/embedding"
	"library-assistant-be/pkg/events"
	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// errRetryLater marks storage failures worth a redelivery.
var errRetryLater = errors.New("retry later")

func retryLater(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, errRetryLater, err)
}

// EventPublisher forwards domain events to the outside bus. It may be nil.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber        message.Subscriber
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	events            EventPublisher
	logger            logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:        subscriber,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		events:            eventPublisher,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	docs, err := cs.subscriber.Subscribe(ctx, TopicEmbedDocument)
	if err != nil {
		return err
	}
	titles, err := cs.subscriber.Subscribe(ctx, TopicEmbedTitles)
	if err != nil {
		return err
	}

	go func() {
		for msg := range docs {
			cs.handle(ctx, msg, cs.processDocument)
		}
	}()
	go func() {
		for msg := range titles {
			cs.handle(ctx, msg, cs.processTitles)
		}
	}()

	return nil
}

// handle acks everything except transient storage failures. Embedding
// failures mark the work failed instead of looping on a dead provider.
func (cs *consumerService) handle(ctx context.Context, msg *message.Message, process func(ctx context.Context, payload []byte) error) {
	if err := process(ctx, msg.Payload); err != nil {
		cs.logger.Error("CONSUMER", "Job failed", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		if errors.Is(err, errRetryLater) {
			msg.Nack()
			return
		}
	}
	msg.Ack()
}

func (cs *consumerService) embed(ctx context.Context, text string) ([]float32, error) {
	res, err := utils.RetryOnce(ctx, rag.IsRetryable, func(ctx context.Context) (*embedding.EmbeddingResponse, error) {
		res, err := cs.embeddingProvider.Generate(ctx, text, embedding.TaskRetrievalDocument)
		return res, rag.Upstream("embed", err)
	})
	if err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}

// chunkDocument is what gets embedded for a chunk: its heading gives short
// passages enough context to be found.
func chunkDocument(c *entity.DocumentChunk) string {
	if c.ParentHeading == "" || c.Type == "heading" {
		return c.Content
	}
	return c.ParentHeading + "\n" + c.Content
}

func (cs *consumerService) processDocument(ctx context.Context, payload []byte) error {
	var job dto.EmbedDocumentMessage
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("invalid embed document payload: %w", err)
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: job.DocumentId})
	if err != nil {
		return retryLater("load document", err)
	}
	if doc == nil {
		cs.logger.Warn("CONSUMER", "Document deleted before embedding", map[string]interface{}{"document_id": job.DocumentId.String()})
		return nil
	}

	pending, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: doc.Id},
		specification.PendingEmbedding{},
		specification.ReadingOrder{},
	)
	if err != nil {
		return retryLater("load chunks", err)
	}

	vectors := make(map[uuid.UUID][]float32, len(pending))
	for _, c := range pending {
		vec, err := cs.embed(ctx, chunkDocument(c))
		if err != nil {
			cs.markDocument(ctx, doc, entity.DocumentStatusFailed)
			return fmt.Errorf("chunk %s of document %s: %w", c.Id, doc.Id, err)
		}
		vectors[c.Id] = vec
	}

	if err := uow.Begin(ctx); err != nil {
		return retryLater("begin", err)
	}
	defer uow.Rollback()

	for id, vec := range vectors {
		if err := uow.DocumentChunkRepository().UpdateEmbedding(ctx, id, vec); err != nil {
			return retryLater("store embedding", err)
		}
	}
	doc.Status = entity.DocumentStatusIndexed
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return retryLater("update document", err)
	}
	if err := uow.Commit(); err != nil {
		return retryLater("commit", err)
	}

	cs.logger.Info("CONSUMER", "Document indexed", map[string]interface{}{
		"document_id": doc.Id.String(),
		"embedded":    len(vectors),
	})
	cs.publish(ctx, events.New(events.DocumentIndexed, map[string]interface{}{
		"document_id": doc.Id.String(),
		"title":       doc.Title,
		"chunks":      len(vectors),
	}))
	return nil
}

func (cs *consumerService) markDocument(ctx context.Context, doc *entity.Document, status string) {
	doc.Status = status
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		cs.logger.Error("CONSUMER", "Failed to update document status", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}
}

// titleDocument is the text a title is embedded from.
func titleDocument(t *entity.BookTitle) string {
	var b strings.Builder
	b.WriteString(t.Title)
	if t.Author != "" {
		b.WriteString(" - ")
		b.WriteString(t.Author)
	}
	if t.Category != "" {
		b.WriteString(" (")
		b.WriteString(t.Category)
		b.WriteString(")")
	}
	if t.Description != "" {
		b.WriteString(". ")
		b.WriteString(t.Description)
	}
	return b.String()
}

func (cs *consumerService) processTitles(ctx context.Context, payload []byte) error {
	var job dto.EmbedTitlesMessage
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("invalid embed titles payload: %w", err)
	}
	if len(job.TitleIds) == 0 {
		return nil
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	titles, err := uow.BookTitleRepository().FindAll(ctx, specification.ByStringIDs{IDs: job.TitleIds})
	if err != nil {
		return retryLater("load titles", err)
	}

	embedded := 0
	for _, t := range titles {
		doc := titleDocument(t)
		vec, err := cs.embed(ctx, doc)
		if err != nil {
			cs.logger.Warn("CONSUMER", "Skipping title, embedding failed", map[string]interface{}{
				"title_id": t.Id,
				"error":    err.Error(),
			})
			continue
		}
		if err := uow.BookTitleEmbeddingRepository().Upsert(ctx, &entity.BookTitleEmbedding{
			BookTitleId:    t.Id,
			Document:       doc,
			EmbeddingValue: vec,
		}); err != nil {
			return retryLater("store title embedding", err)
		}
		embedded++
	}

	cs.logger.Info("CONSUMER", "Titles embedded", map[string]interface{}{
		"requested": len(job.TitleIds),
		"embedded":  embedded,
	})
	cs.publish(ctx, events.New(events.CatalogReindexed, map[string]interface{}{
		"requested": len(job.TitleIds),
		"embedded":  embedded,
	}))
	return nil
}

func (cs *consumerService) publish(ctx context.Context, event events.Event) {
	if cs.events == nil {
		return
	}
	if err := cs.events.Publish(ctx, event); err != nil {
		cs.logger.Warn("CONSUMER", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
