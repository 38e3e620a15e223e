package loans

type ListLoansQuery struct {
	Active *bool `query:"active"`
	Limit  int   `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int   `query:"offset" validate:"min=0"`
}

type AdminListLoansQuery struct {
	MemberID *int  `query:"member_id" validate:"omitempty,min=1"`
	BookID   *int  `query:"book_id" validate:"omitempty,min=1"`
	Active   *bool `query:"active"`
	Limit    int   `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset   int   `query:"offset" validate:"min=0"`
}

type CreateLoanPayload struct {
	BookID   int    `json:"book_id" validate:"required,min=1"`
	MemberID int    `json:"member_id" validate:"required,min=1"`
	LoanDate string `json:"loan_date" validate:"date"`
}

type ReturnLoanPayload struct {
	ReturnedDate string `json:"returned_date" validate:"date"`
}
