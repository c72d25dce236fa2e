package implementation_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"library-assistant-be/internal/entity"
	"library-assistant-be/internal/model"
	"library-assistant-be/internal/repository/implementation"
	"library-assistant-be/internal/repository/specification"
	"library-assistant-be/internal/repository/unitofwork"
	"library-assistant-be/pkg/database"
	"library-assistant-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error)
	require.NoError(t, db.AutoMigrate(
		&model.BookTitle{}, &model.BookTitleEmbedding{}, &model.BookCopy{},
		&model.Document{}, &model.DocumentChunk{},
	))
	for _, sql := range implementation.SearchSetupSQL {
		require.NoError(t, db.Exec(sql).Error)
	}
	return db
}

func TestCatalogRepositories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	id := fmt.Sprintf("IT-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		db.Unscoped().Where("book_title_id = ?", id).Delete(&model.BookCopy{})
		db.Unscoped().Where("id = ?", id).Delete(&model.BookTitle{})
	})

	require.NoError(t, uow.BookTitleRepository().Upsert(ctx, []*entity.BookTitle{{
		Id:          id,
		Title:       "Zzyzx Integration Almanac",
		Description: "Giáo trình kiểm thử danh mục",
	}}))
	require.NoError(t, uow.BookCopyRepository().CreateBulk(ctx, []*entity.BookCopy{
		{Id: uuid.New(), BookTitleId: id, Barcode: id + "-1", Active: true, OnLoan: true},
		{Id: uuid.New(), BookTitleId: id, Barcode: id + "-2", Active: true},
		{Id: uuid.New(), BookTitleId: id, Barcode: id + "-3", Active: false},
	}))

	t.Run("keyword search ranks the fixture", func(t *testing.T) {
		hits, err := uow.BookTitleRepository().KeywordSearch(ctx, "zzyzx almanac", 5)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, id, hits[0].Title.Id)
		assert.Greater(t, hits[0].Rank, 0.0)
	})

	t.Run("keyword search ignores diacritics", func(t *testing.T) {
		hits, err := uow.BookTitleRepository().KeywordSearch(ctx, "zzyzx giao trinh kiem thu", 5)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, id, hits[0].Title.Id)
	})

	t.Run("count ignores inactive copies", func(t *testing.T) {
		count, err := uow.BookCopyRepository().CountByTitle(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, count)
		assert.Equal(t, 2, count.Total)
		assert.Equal(t, 1, count.OnLoan)
	})

	t.Run("unknown title has no count", func(t *testing.T) {
		count, err := uow.BookCopyRepository().CountByTitle(ctx, id+"-missing")
		require.NoError(t, err)
		assert.Nil(t, count)
	})
}

func TestDocumentChunkRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	doc := &entity.Document{Id: uuid.New(), Title: "Fixture", PageCount: 2, Status: entity.DocumentStatusPending}
	require.NoError(t, uow.DocumentRepository().Create(ctx, doc))
	t.Cleanup(func() {
		db.Where("document_id = ?", doc.Id).Delete(&model.DocumentChunk{})
		db.Unscoped().Where("id = ?", doc.Id).Delete(&model.Document{})
	})

	box := []store.BoundingBox{{X0: 10, Y0: 20, X1: 110, Y1: 70}}
	require.NoError(t, uow.DocumentChunkRepository().CreateBulk(ctx, []*entity.DocumentChunk{
		{Id: uuid.New(), DocumentId: doc.Id, Page: 2, ChunkIndex: 2, Type: store.ChunkText, ParentHeading: "Kết luận", Content: "c", BBoxes: box},
		{Id: uuid.New(), DocumentId: doc.Id, Page: 1, ChunkIndex: 0, Type: store.ChunkHeading, Content: "Giới thiệu", BBoxes: box},
		{Id: uuid.New(), DocumentId: doc.Id, Page: 1, ChunkIndex: 1, Type: store.ChunkText, ParentHeading: "Giới thiệu", Content: "a", BBoxes: box},
	}))

	chunks, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: doc.Id},
		specification.ReadingOrder{},
	)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 2, chunks[2].ChunkIndex)
	assert.Equal(t, box, chunks[1].BBoxes)

	headings, err := uow.DocumentChunkRepository().Headings(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Giới thiệu"}, headings)

	stats, err := uow.DocumentChunkRepository().Stats(ctx, doc.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 0, stats.Embedded)
	assert.EqualValues(t, 2, stats.ByType[store.ChunkText])
}
