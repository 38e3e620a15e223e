package authors

type ListAuthorsQuery struct {
	Search *string `query:"search" mod:"trim"`
	Limit  int     `query:"limit" default:"100" validate:"min=1,max=500"`
	Offset int     `query:"offset" validate:"min=0"`
}

type CreateAuthorPayload struct {
	FirstName string `json:"first_name" mod:"trim" validate:"required,max=100"`
	LastName  string `json:"last_name" mod:"trim" validate:"max=100"`
	UserID    *int   `json:"user_id" validate:"omitempty,min=1"`
}

type UpdateAuthorPayload struct {
	FirstName *string `json:"first_name" mod:"trim" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" mod:"trim" validate:"omitempty,max=100"`
	UserID    *int    `json:"user_id" validate:"omitempty,min=1"`
	// ClearUser unlinks the author from its user account.
	ClearUser bool `json:"clear_user"`
}
