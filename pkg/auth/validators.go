package auth

import "mime/multipart"

// LoginPayload represents the login request body.
type LoginPayload struct {
	Email    string `form:"email" json:"email" mod:"trim,lcase" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// RegisterPayload is accepted as JSON or as a multipart form carrying an
// optional "image" upload.
type RegisterPayload struct {
	FirstName            string `form:"first_name" json:"first_name" mod:"trim" validate:"required,max=150"`
	LastName             string `form:"last_name" json:"last_name" mod:"trim" validate:"required,max=150"`
	Email                string `form:"email" json:"email" mod:"trim,lcase" validate:"required,email,max=254"`
	Gender               string `form:"gender" json:"gender" mod:"trim,lcase" validate:"required,oneof=male female other"`
	Password             string `form:"password" json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `form:"password_confirmation" json:"password_confirmation" validate:"required,eqfield=Password"`

	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}

// EmailCheckPayload is posted by the registration form as the user types.
type EmailCheckPayload struct {
	SearchEmail string `form:"search_email" json:"search_email" mod:"trim"`
}

// MeResponse represents the current user response.
type MeResponse struct {
	ID          int      `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Gender      string   `json:"gender"`
	Avatar      string   `json:"avatar"`
	RoleID      int      `json:"role_id"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}
