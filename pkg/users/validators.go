package users

// CreateUserPayload represents the request body for creating a user.
type CreateUserPayload struct {
	FirstName string `json:"first_name" mod:"trim" validate:"required,max=150"`
	LastName  string `json:"last_name" mod:"trim" validate:"required,max=150"`
	Email     string `json:"email" mod:"trim,lcase" validate:"required,email,max=254"`
	Gender    string `json:"gender" mod:"trim,lcase" validate:"required,oneof=male female other"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" default:"member" validate:"oneof=admin author member"`
}

// UpdateUserPayload represents the request body for updating a user.
type UpdateUserPayload struct {
	FirstName *string `json:"first_name" mod:"trim" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" mod:"trim" validate:"omitempty,max=150"`
	Email     *string `json:"email" mod:"trim,lcase" validate:"omitempty,email,max=254"`
	Gender    *string `json:"gender" mod:"trim,lcase" validate:"omitempty,oneof=male female other"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin author member"`
	IsActive  *bool   `json:"is_active"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// ListUsersQuery represents the query parameters for listing users.
type ListUsersQuery struct {
	Role   *string `query:"role" validate:"omitempty,oneof=admin author member"`
	Search *string `query:"search" mod:"trim"`
	Limit  int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" validate:"min=0"`
}
