package main

import (
	"log"
	"os"

	"library-assistant-be/internal/model"
	"library-assistant-be/internal/repository/implementation"
	"library-assistant-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.BookTitle{},
		&model.BookTitleEmbedding{},
		&model.BookCopy{},
		&model.Document{},
		&model.DocumentChunk{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating search indexes...")
	postMigrationSQL := append(implementation.SearchSetupSQL,
		`CREATE INDEX IF NOT EXISTS idx_book_title_embeddings_hnsw ON book_title_embeddings
		 USING hnsw (embedding_value vector_cosine_ops);`,

		`CREATE INDEX IF NOT EXISTS idx_document_chunks_hnsw ON document_chunks
		 USING hnsw (embedding_value vector_cosine_ops);`,
	)
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}
