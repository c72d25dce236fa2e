package main

import (
	"fmt"
	"log"
	"os"

	"library-assistant-be/internal/model"
	"library-assistant-be/pkg/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type seedTitle struct {
	title  model.BookTitle
	copies int
	onLoan int
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding Catalog...")
	SeedCatalog(db)
	log.Println("Catalog seeding completed! Run POST /api/catalog/v1/reindex to embed the titles.")
}

// SeedCatalog inserts a small demo catalog. Existing titles and barcodes are
// left untouched, so it is safe to run more than once.
func SeedCatalog(db *gorm.DB) {
	titles := []seedTitle{
		{model.BookTitle{Id: "VN-0001", Title: "Dế Mèn Phiêu Lưu Ký", Author: "Tô Hoài", Category: "Thiếu nhi",
			Description: "Cuộc phiêu lưu của chú dế mèn qua thế giới loài vật, bài học về tình bạn và lòng dũng cảm."}, 3, 1},
		{model.BookTitle{Id: "VN-0002", Title: "Tắt Đèn", Author: "Ngô Tất Tố", Category: "Văn học",
			Description: "Tiểu thuyết hiện thực về cuộc sống khốn cùng của người nông dân trước Cách mạng."}, 2, 2},
		{model.BookTitle{Id: "VN-0003", Title: "Nhà Giả Kim", Author: "Paulo Coelho", Category: "Văn học nước ngoài",
			Description: "Hành trình theo đuổi giấc mơ của chàng chăn cừu Santiago."}, 4, 0},
		{model.BookTitle{Id: "EN-0042", Title: "1984", Author: "George Orwell", Category: "Văn học nước ngoài",
			Description: "Tiểu thuyết phản địa đàng về một xã hội bị giám sát toàn diện."}, 2, 1},
		{model.BookTitle{Id: "VN-0100", Title: "Lập Trình Go Căn Bản", Author: "Nhiều tác giả", Category: "Công nghệ",
			Description: "Giới thiệu ngôn ngữ Go, goroutine, channel và xây dựng dịch vụ web."}, 1, 0},
	}

	for _, s := range titles {
		t := s.title
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&t).Error; err != nil {
			log.Printf("Error creating title '%s': %v", t.Id, err)
			continue
		}

		for i := 0; i < s.copies; i++ {
			c := model.BookCopy{
				BookTitleId: t.Id,
				Barcode:     fmt.Sprintf("%s-C%02d", t.Id, i+1),
				OnLoan:      i < s.onLoan,
				Active:      true,
			}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
				log.Printf("Error creating copy '%s': %v", c.Barcode, err)
			}
		}
		log.Printf("Seeded title: %s (%s)", t.Title, t.Id)
	}
}
