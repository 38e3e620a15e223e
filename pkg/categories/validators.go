package categories

type ListCategoriesQuery struct {
	Search *string `query:"search" mod:"trim"`
	Limit  int     `query:"limit" default:"100" validate:"min=1,max=500"`
	Offset int     `query:"offset" validate:"min=0"`
}

type CreateCategoryPayload struct {
	Name string `json:"name" mod:"trim" validate:"required,max=255"`
}

type UpdateCategoryPayload struct {
	Name *string `json:"name" mod:"trim" validate:"omitempty,max=255"`
}
