package dto

import (
	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/domain/loan"
)

// BorrowRequest HTTP借书请求
type BorrowRequest struct {
	BookID uint `json:"book_id" binding:"required" example:"1"`
	UserID uint `json:"user_id" binding:"required" example:"1"`
}

// ListLoansRequest HTTP借阅列表请求,user_id与book_id二选一,都不传返回全部
type ListLoansRequest struct {
	UserID uint `form:"user_id"`
	BookID uint `form:"book_id"`
}

// LoanResponse 借阅记录
type LoanResponse struct {
	ID         uint   `json:"id" example:"1"`
	BookID     uint   `json:"book_id" example:"1"`
	UserID     uint   `json:"user_id" example:"1"`
	BorrowDate string `json:"borrow_date" example:"2024-03-01"`
	DueDate    string `json:"due_date" example:"2024-03-15"`
	ReturnDate string `json:"return_date,omitempty" example:"2024-03-18"`
	Status     string `json:"status" example:"OVERDUE"`
	FineAmount string `json:"fine_amount" example:"3.00"`
}

// NewLoanResponse 领域实体 → HTTP响应
func NewLoanResponse(l *loan.Loan) *LoanResponse {
	resp := &LoanResponse{
		ID:         l.ID,
		BookID:     l.BookID,
		UserID:     l.UserID,
		BorrowDate: FormatDate(l.BorrowDate),
		DueDate:    FormatDate(l.DueDate),
		Status:     string(l.Status),
		FineAmount: l.FineAmount.StringFixed(2),
	}
	if l.ReturnDate != nil {
		resp.ReturnDate = FormatDate(*l.ReturnDate)
	}
	return resp
}

// NewLoanResponses 批量转换
func NewLoanResponses(loans []*loan.Loan) []*LoanResponse {
	list := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		list[i] = NewLoanResponse(l)
	}
	return list
}

// FineResponse 罚金预估
type FineResponse struct {
	LoanID   uint   `json:"loan_id" example:"1"`
	Status   string `json:"status" example:"BORROWED"`
	DueDate  string `json:"due_date" example:"2024-03-15"`
	AsOf     string `json:"as_of" example:"2024-03-20"`
	DaysLate int    `json:"days_late" example:"5"`
	Fine     string `json:"fine" example:"5.00"`
	Settled  bool   `json:"settled" example:"false"`
}

// NewFineResponse 转换罚金预估
func NewFineResponse(p *apploan.FinePreview) *FineResponse {
	return &FineResponse{
		LoanID:   p.LoanID,
		Status:   string(p.Status),
		DueDate:  FormatDate(p.DueDate),
		AsOf:     FormatDate(p.AsOf),
		DaysLate: p.DaysLate,
		Fine:     p.Fine.StringFixed(2),
		Settled:  p.Settled,
	}
}
