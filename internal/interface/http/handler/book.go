package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	listBooksUseCase *appbook.ListBooksUseCase
	addBookUseCase   *appbook.AddBookUseCase
	bookService      book.Service
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	listBooksUseCase *appbook.ListBooksUseCase,
	addBookUseCase *appbook.AddBookUseCase,
	bookService book.Service,
) *BookHandler {
	return &BookHandler{
		listBooksUseCase: listBooksUseCase,
		addBookUseCase:   addBookUseCase,
		bookService:      bookService,
	}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  分页查询馆藏图书,keyword匹配书名、作者、分类(不区分大小写)
// @Tags         图书
// @Produce      json
// @Param        page      query int    false "页码(从1开始)" default(1)
// @Param        page_size query int    false "每页数量"     default(20)
// @Param        keyword   query string false "搜索关键词"
// @Param        sort_by   query string false "排序" Enums(title_asc, created_at_desc)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.BookResponse}}
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		SortBy:   req.SortBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, dto.NewBookResponses(result.Books), result.Total, result.Page, result.PageSize)
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      200 {object} response.Response "40402 图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	b, err := h.bookService.GetBook(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	// 已删除的图书对外视为不存在
	if b.IsDeleted() {
		response.Error(c, book.ErrBookNotFound)
		return
	}
	response.Success(c, dto.NewBookResponse(b))
}

// CreateBook 图书入库
// @Summary      图书入库
// @Description  新增馆藏图书,可借数量等于馆藏数量
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBookRequest true "图书信息"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      200 {object} response.Response "40910 ISBN格式不正确 / 40004 ISBN已存在"
// @Router       /api/v1/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	publishedDate, err := dto.ParseDate(req.PublishedDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 2. 调用应用层用例
	b, err := h.addBookUseCase.Execute(c.Request.Context(), appbook.AddBookRequest{
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		Category:      req.Category,
		TotalCopies:   req.TotalCopies,
		PublishedDate: publishedDate,
		Operator:      middleware.GetUsername(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.NewBookResponse(b))
}

// UpdateBook 更新图书
// @Summary      更新图书
// @Description  省略的字段不修改;修改馆藏数量时可借数量同步调整
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                   true "图书ID"
// @Param        request body dto.UpdateBookRequest true "更新内容"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Router       /api/v1/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	publishedDate, err := dto.ParseDate(req.PublishedDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.bookService.UpdateBook(c.Request.Context(), id, book.UpdateParams{
		Title:         req.Title,
		Author:        req.Author,
		Category:      req.Category,
		TotalCopies:   req.TotalCopies,
		PublishedDate: publishedDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookResponse(b))
}

// DeleteBook 删除图书(软删除)
// @Summary      删除图书
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.bookService.DeleteBook(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
