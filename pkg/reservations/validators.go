package reservations

type ListReservationsQuery struct {
	Status *string `query:"status" validate:"omitempty,oneof=pending fulfilled cancelled"`
	Limit  int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" validate:"min=0"`
}

type AdminListReservationsQuery struct {
	MemberID *int    `query:"member_id" validate:"omitempty,min=1"`
	BookID   *int    `query:"book_id" validate:"omitempty,min=1"`
	Status   *string `query:"status" validate:"omitempty,oneof=pending fulfilled cancelled"`
	Limit    int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset   int     `query:"offset" validate:"min=0"`
}
