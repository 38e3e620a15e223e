package fines

type ListFinesQuery struct {
	Status *string `query:"status" validate:"omitempty,oneof=unpaid paid"`
	Limit  int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" validate:"min=0"`
}

type AdminListFinesQuery struct {
	MemberID *int    `query:"member_id" validate:"omitempty,min=1"`
	LoanID   *int    `query:"loan_id" validate:"omitempty,min=1"`
	Status   *string `query:"status" validate:"omitempty,oneof=unpaid paid"`
	Limit    int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset   int     `query:"offset" validate:"min=0"`
}

type AssessFinePayload struct {
	LoanID     int    `json:"loan_id" validate:"required,min=1"`
	FineAmount string `json:"fine_amount" mod:"trim" validate:"required,money"`
	FineDate   string `json:"fine_date" validate:"date"`
}
