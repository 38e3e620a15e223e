package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/shelfkeep/pkg/authors"
	"github.com/shishobooks/shelfkeep/pkg/books"
	"github.com/shishobooks/shelfkeep/pkg/categories"
	"github.com/shishobooks/shelfkeep/pkg/config"
	"github.com/shishobooks/shelfkeep/pkg/database"
	"github.com/shishobooks/shelfkeep/pkg/migrations"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/shishobooks/shelfkeep/pkg/users"
)

type sampleBook struct {
	title     string
	category  string
	author    [2]string
	published time.Time
	copies    int
}

var sampleBooks = []sampleBook{
	{"Kindred", "Fiction", [2]string{"Octavia", "Butler"}, time.Date(1979, 6, 1, 0, 0, 0, 0, time.UTC), 3},
	{"The Dispossessed", "Fiction", [2]string{"Ursula", "Le Guin"}, time.Date(1974, 5, 1, 0, 0, 0, 0, time.UTC), 2},
	{"Gitanjali", "Poetry", [2]string{"Rabindranath", "Tagore"}, time.Date(1910, 8, 14, 0, 0, 0, 0, time.UTC), 1},
	{"The Discovery of India", "History", [2]string{"Jawaharlal", "Nehru"}, time.Date(1946, 1, 1, 0, 0, 0, 0, time.UTC), 2},
}

func main() {
	ctx := context.Background()
	log := logger.New()
	_ = godotenv.Load()

	var opts struct {
		AdminEmail    string `long:"admin-email" default:"admin@example.com" description:"Email for the admin account"`
		AdminPassword string `long:"admin-password" required:"true" description:"Password for the admin account"`
		SkipCatalog   bool   `long:"skip-catalog" description:"Only create the admin account"`
	}

	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		log.Err(err).Fatal("flags parse error")
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		log.Err(err).Fatal("migrations error")
	}

	admin, err := users.NewService(db).Create(ctx, users.CreateUserOptions{
		FirstName: "Library",
		LastName:  "Admin",
		Email:     opts.AdminEmail,
		Gender:    models.GenderOther,
		Password:  opts.AdminPassword,
		Role:      models.RoleAdmin,
	})
	if err != nil {
		log.Err(err).Fatal("create admin error")
	}
	fmt.Printf("Created admin %s (id %d)\n", admin.Email, admin.ID)

	if opts.SkipCatalog {
		return
	}

	categoryService := categories.NewService(db)
	authorService := authors.NewService(db)
	bookService := books.NewService(db)

	categoryIDs := map[string]int{}
	for _, sample := range sampleBooks {
		categoryID, ok := categoryIDs[sample.category]
		if !ok {
			category := &models.Category{Name: sample.category}
			if err := categoryService.CreateCategory(ctx, category); err != nil {
				log.Err(err).Fatal("create category error")
			}
			categoryID = category.ID
			categoryIDs[sample.category] = categoryID
		}

		author := &models.Author{FirstName: sample.author[0], LastName: sample.author[1]}
		if err := authorService.CreateAuthor(ctx, author); err != nil {
			log.Err(err).Fatal("create author error")
		}

		book := &models.Book{
			Title:           sample.title,
			CategoryID:      categoryID,
			PublicationDate: sample.published,
			CopiesOwned:     sample.copies,
		}
		if err := bookService.CreateBook(ctx, book, []int{author.ID}); err != nil {
			log.Err(err).Fatal("create book error")
		}
		fmt.Printf("Created book %q (id %d)\n", book.Title, book.ID)
	}
}
