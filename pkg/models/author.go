package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:author,alias:a"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	FirstName string    `bun:",nullzero" json:"first_name"`
	LastName  string    `json:"last_name"`
	UserID    *int      `json:"user_id,omitempty"`
	User      *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

func (a *Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// BookAuthor links a book to one of its authors. A pairing exists at most once.
type BookAuthor struct {
	bun.BaseModel `bun:"table:book_author,alias:ba"`

	ID       int     `bun:",pk,nullzero" json:"id"`
	BookID   int     `json:"book_id"`
	AuthorID int     `json:"author_id"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
}
