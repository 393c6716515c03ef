package handler

import (
	"github.com/gin-gonic/gin"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/pkg/response"
)

// LoanHandler 借阅HTTP处理器
type LoanHandler struct {
	loanService *apploan.Service
}

// NewLoanHandler 创建借阅处理器
func NewLoanHandler(loanService *apploan.Service) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// Borrow 借书
// @Summary      借书
// @Description  为读者借出一本图书,应还日期为借出日+借期
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BorrowRequest true "借书信息"
// @Success      200 {object} response.Response{data=dto.LoanResponse}
// @Failure      200 {object} response.Response "40006 无可借副本 / 40008 超出借阅上限 / 40010 读者状态不可借阅"
// @Router       /api/v1/loans [post]
func (h *LoanHandler) Borrow(c *gin.Context) {
	var req dto.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	l, err := h.loanService.Borrow(c.Request.Context(), req.BookID, req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewLoanResponse(l))
}

// Return 还书
// @Summary      还书
// @Description  逾期归还按天计算罚金,状态为OVERDUE
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response{data=dto.LoanResponse}
// @Failure      200 {object} response.Response "40404 借阅记录不存在 / 40007 已归还"
// @Router       /api/v1/loans/{id}/return [post]
func (h *LoanHandler) Return(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	l, err := h.loanService.Return(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewLoanResponse(l))
}

// GetLoan 借阅详情
// @Summary      借阅详情
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response{data=dto.LoanResponse}
// @Router       /api/v1/loans/{id} [get]
func (h *LoanHandler) GetLoan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := h.loanService.GetLoan(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewLoanResponse(l))
}

// PreviewFine 罚金预估
// @Summary      罚金预估
// @Description  如果今天归还需要缴纳的罚金,不修改任何数据
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response{data=dto.FineResponse}
// @Router       /api/v1/loans/{id}/fine [get]
func (h *LoanHandler) PreviewFine(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.loanService.PreviewFine(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewFineResponse(p))
}

// ListLoans 借阅列表
// @Summary      借阅列表
// @Description  按读者或图书过滤,都不传返回全部
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        user_id query int false "读者ID"
// @Param        book_id query int false "图书ID"
// @Success      200 {object} response.Response{data=[]dto.LoanResponse}
// @Router       /api/v1/loans [get]
func (h *LoanHandler) ListLoans(c *gin.Context) {
	var req dto.ListLoansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	var (
		loans []*loan.Loan
		err   error
	)
	ctx := c.Request.Context()
	switch {
	case req.UserID > 0:
		loans, err = h.loanService.ListByUser(ctx, req.UserID)
	case req.BookID > 0:
		loans, err = h.loanService.ListByBook(ctx, req.BookID)
	default:
		loans, err = h.loanService.ListLoans(ctx)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewLoanResponses(loans))
}

// ListOverdue 逾期列表
// @Summary      逾期列表
// @Description  未归还且应还日期早于今天的借阅
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]dto.LoanResponse}
// @Router       /api/v1/loans/overdue [get]
func (h *LoanHandler) ListOverdue(c *gin.Context) {
	loans, err := h.loanService.ListOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewLoanResponses(loans))
}
