package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"library-assistant-be/internal/dto"
	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/pkg/logger"
	"library-assistant-be/internal/repository/specification"
	"library-assistant-be/internal/repository/unitofwork"
	"library-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// embedBatchSize bounds the title ids carried by one embedding job.
const embedBatchSize = 50

// AvailabilityLookup is satisfied by *availability.Lookup.
type AvailabilityLookup interface {
	Check(ctx context.Context, id string) (*store.AvailabilityStatus, error)
}

type ICatalogService interface {
	UpsertTitles(ctx context.Context, req *dto.UpsertTitlesRequest) (*dto.UpsertTitlesResponse, error)
	Reindex(ctx context.Context, req *dto.ReindexCatalogRequest) (*dto.ReindexCatalogResponse, error)
	Availability(ctx context.Context, id string) (*dto.AvailabilityResponse, error)
	SetLoan(ctx context.Context, copyId uuid.UUID, req *dto.SetLoanRequest) error
}

type catalogService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	lookup           AvailabilityLookup
	logger           logger.ILogger
}

func NewCatalogService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	lookup AvailabilityLookup,
	log logger.ILogger,
) ICatalogService {
	return &catalogService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		lookup:           lookup,
		logger:           log,
	}
}

// UpsertTitles imports titles, tops up active copies to the requested count
// and queues the titles for (re)embedding.
func (s *catalogService) UpsertTitles(ctx context.Context, req *dto.UpsertTitlesRequest) (*dto.UpsertTitlesResponse, error) {
	titles := make([]*entity.BookTitle, 0, len(req.Titles))
	ids := make([]string, 0, len(req.Titles))
	for _, t := range req.Titles {
		id := strings.TrimSpace(t.Id)
		titles = append(titles, &entity.BookTitle{
			Id:          id,
			Title:       strings.TrimSpace(t.Title),
			Description: t.Description,
			Author:      t.Author,
			Category:    t.Category,
			ImagePath:   t.ImagePath,
			Price:       t.Price,
			CreatedAt:   time.Now(),
		})
		ids = append(ids, id)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.BookTitleRepository().Upsert(ctx, titles); err != nil {
		return nil, err
	}

	for _, t := range req.Titles {
		if t.Copies == 0 {
			continue
		}
		existing, err := uow.BookCopyRepository().FindAll(ctx,
			specification.ByBookTitleID{BookTitleID: strings.TrimSpace(t.Id)},
			specification.ActiveCopies{},
		)
		if err != nil {
			return nil, err
		}
		missing := t.Copies - len(existing)
		if missing <= 0 {
			continue
		}
		copies := make([]*entity.BookCopy, missing)
		for i := range copies {
			copies[i] = &entity.BookCopy{
				Id:          uuid.New(),
				BookTitleId: strings.TrimSpace(t.Id),
				Barcode:     fmt.Sprintf("%s-%03d", strings.TrimSpace(t.Id), len(existing)+i+1),
				Active:      true,
				CreatedAt:   time.Now(),
			}
		}
		if err := uow.BookCopyRepository().CreateBulk(ctx, copies); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	queued, err := s.queue(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &dto.UpsertTitlesResponse{Upserted: len(titles), Queued: queued}, nil
}

func (s *catalogService) Reindex(ctx context.Context, req *dto.ReindexCatalogRequest) (*dto.ReindexCatalogResponse, error) {
	specs := []specification.Specification{specification.OrderBy{Field: "id"}}
	if !req.Full {
		specs = append(specs, specification.WithoutEmbedding{})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	titles, err := uow.BookTitleRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(titles))
	for i, t := range titles {
		ids[i] = t.Id
	}
	queued, err := s.queue(ctx, ids)
	if err != nil {
		return nil, err
	}

	s.logger.Info("CATALOG", "Reindex queued", map[string]interface{}{"full": req.Full, "titles": queued})
	return &dto.ReindexCatalogResponse{Queued: queued}, nil
}

func (s *catalogService) queue(ctx context.Context, ids []string) (int, error) {
	for start := 0; start < len(ids); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		msg := dto.EmbedTitlesMessage{TitleIds: ids[start:end]}
		if err := s.publisherService.SendMessage(ctx, TopicEmbedTitles, msg); err != nil {
			return start, err
		}
	}
	return len(ids), nil
}

func (s *catalogService) Availability(ctx context.Context, id string) (*dto.AvailabilityResponse, error) {
	status, err := s.lookup.Check(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.AvailabilityResponse{
		Id:        status.ID,
		Title:     status.Title,
		Total:     status.Total,
		Available: status.Available,
		OnLoan:    status.OnLoan(),
	}, nil
}

func (s *catalogService) SetLoan(ctx context.Context, copyId uuid.UUID, req *dto.SetLoanRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.BookCopyRepository().SetOnLoan(ctx, copyId, req.OnLoan)
}
