package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:book,alias:b"`

	ID              int           `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Title           string        `bun:",nullzero" json:"title"`
	Description     *string       `json:"description"`
	CategoryID      int           `json:"category_id"`
	Category        *Category     `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	PublicationDate time.Time     `json:"publication_date"`
	CopiesOwned     int           `json:"copies_owned"`
	CoverImage      *string       `json:"cover_image"`
	Authors         []*BookAuthor `bun:"rel:has-many,join:id=book_id" json:"authors,omitempty"`
}

// AuthorNames returns the display names of the loaded authors in order.
func (b *Book) AuthorNames() []string {
	names := make([]string, 0, len(b.Authors))
	for _, ba := range b.Authors {
		if ba.Author != nil {
			names = append(names, ba.Author.FullName())
		}
	}
	return names
}
