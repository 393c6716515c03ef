package dto

import (
	"strings"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 时间格式
const (
	DateLayout     = time.DateOnly
	DateTimeLayout = "2006-01-02 15:04:05"
)

// CreateBookRequest HTTP图书入库请求
// ISBN格式与唯一性由领域服务校验,这里只做必填和长度校验
type CreateBookRequest struct {
	ISBN          string `json:"isbn" binding:"required,max=20" example:"978-0-306-40615-7"`
	Title         string `json:"title" binding:"required,max=200" example:"The Go Programming Language"`
	Author        string `json:"author" binding:"required,max=100" example:"Alan Donovan"`
	Category      string `json:"category" binding:"max=50" example:"Programming"`
	TotalCopies   int    `json:"total_copies" binding:"min=0" example:"3"`
	PublishedDate string `json:"published_date" binding:"omitempty" example:"2015-10-26"` // YYYY-MM-DD
}

// UpdateBookRequest HTTP图书更新请求(省略的字段不修改)
type UpdateBookRequest struct {
	Title         string `json:"title" binding:"max=200"`
	Author        string `json:"author" binding:"max=100"`
	Category      string `json:"category" binding:"max=50"`
	TotalCopies   *int   `json:"total_copies" binding:"omitempty,min=0"`
	PublishedDate string `json:"published_date" example:"2015-10-26"`
}

// ListBooksRequest HTTP图书列表请求
type ListBooksRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword  string `form:"keyword" binding:"omitempty,max=100" example:"go"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=title_asc created_at_desc" example:"title_asc"`
}

// BookResponse HTTP图书响应
type BookResponse struct {
	ID              uint   `json:"id" example:"1"`
	ISBN            string `json:"isbn" example:"9780306406157"`
	Title           string `json:"title" example:"The Go Programming Language"`
	Author          string `json:"author" example:"Alan Donovan"`
	Category        string `json:"category" example:"Programming"`
	TotalCopies     int    `json:"total_copies" example:"3"`
	AvailableCopies int    `json:"available_copies" example:"2"`
	PublishedDate   string `json:"published_date,omitempty" example:"2015-10-26"`
	Status          string `json:"status" example:"AVAILABLE"`
	CreatedAt       string `json:"created_at" example:"2024-01-15 10:30:00"`
	UpdatedAt       string `json:"updated_at" example:"2024-01-15 10:30:00"`
}

// NewBookResponse 领域实体 → HTTP响应
func NewBookResponse(b *book.Book) *BookResponse {
	return &BookResponse{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		PublishedDate:   FormatDate(b.PublishedDate),
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt.Format(DateTimeLayout),
		UpdatedAt:       b.UpdatedAt.Format(DateTimeLayout),
	}
}

// NewBookResponses 批量转换
func NewBookResponses(books []*book.Book) []*BookResponse {
	list := make([]*BookResponse, len(books))
	for i, b := range books {
		list[i] = NewBookResponse(b)
	}
	return list
}

// ParseDate 解析YYYY-MM-DD,空串返回零值
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidParams.WithReason("日期格式应为YYYY-MM-DD")
	}
	return t, nil
}

// FormatDate 零值返回空串
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
