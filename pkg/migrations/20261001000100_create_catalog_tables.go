package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{
			`CREATE TABLE category (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL CHECK (TRIM(name) <> '')
			)`,
			`CREATE UNIQUE INDEX ux_category_name ON category (name COLLATE NOCASE)`,
			`CREATE TABLE author (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL DEFAULT '',
				user_id INTEGER REFERENCES users (id) ON DELETE SET NULL
			)`,
			`CREATE UNIQUE INDEX ux_author_user_id ON author (user_id) WHERE user_id IS NOT NULL`,
			`CREATE TABLE book (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				description TEXT,
				category_id INTEGER REFERENCES category (id) NOT NULL,
				publication_date TIMESTAMPTZ NOT NULL,
				copies_owned INTEGER NOT NULL DEFAULT 0 CHECK (copies_owned >= 0),
				cover_image TEXT
			)`,
			`CREATE INDEX ix_book_category_id ON book (category_id)`,
			`CREATE INDEX ix_book_title ON book (title COLLATE NOCASE)`,
			`CREATE TABLE book_author (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				book_id INTEGER REFERENCES book (id) ON DELETE CASCADE NOT NULL,
				author_id INTEGER REFERENCES author (id) ON DELETE CASCADE NOT NULL,
				UNIQUE (book_id, author_id)
			)`,
			`CREATE INDEX ix_book_author_author_id ON book_author (author_id)`,
		}
		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"book_author", "book", "author", "category"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
