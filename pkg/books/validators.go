package books

import "mime/multipart"

type ListBooksQuery struct {
	Search        *string `query:"search" mod:"trim"`
	CategoryID    *int    `query:"category_id" validate:"omitempty,min=1"`
	AuthorID      *int    `query:"author_id" validate:"omitempty,min=1"`
	PublishedFrom string  `query:"published_from" validate:"date"`
	PublishedTo   string  `query:"published_to" validate:"date"`
	Limit         int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset        int     `query:"offset" validate:"min=0"`
}

type CreateBookPayload struct {
	Title           string  `json:"title" mod:"trim" validate:"required,max=255"`
	Description     *string `json:"description"`
	CategoryID      int     `json:"category_id" validate:"required,min=1"`
	PublicationDate string  `json:"publication_date" validate:"required,date"`
	CopiesOwned     int     `json:"copies_owned" validate:"min=0"`
	AuthorIDs       []int   `json:"author_ids" validate:"dive,min=1"`
}

type UpdateBookPayload struct {
	Title           *string `json:"title" mod:"trim" validate:"omitempty,min=1,max=255"`
	Description     *string `json:"description"`
	CategoryID      *int    `json:"category_id" validate:"omitempty,min=1"`
	PublicationDate *string `json:"publication_date" validate:"omitempty,date"`
	CopiesOwned     *int    `json:"copies_owned" validate:"omitempty,min=0"`
	AuthorIDs       *[]int  `json:"author_ids" validate:"omitempty,dive,min=1"`
}

// UploadCoverPayload carries the multipart "cover" file.
type UploadCoverPayload struct {
	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}
