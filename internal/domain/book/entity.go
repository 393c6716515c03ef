package book

import (
	"time"
)

// Status 图书状态
// AVAILABLE/UNAVAILABLE由可借副本数推导,DELETED为终态(软删除)
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusUnavailable Status = "UNAVAILABLE"
	StatusDeleted     Status = "DELETED"
)

// Book 图书实体(聚合根)
// 设计说明:
// 1. ISBN存储规范化后的形式(去除连字符和空格),数据库层保证唯一
// 2. 不变量: 0 <= AvailableCopies <= TotalCopies
// 3. 删除后保留记录,借阅历史仍可引用
type Book struct {
	ID              uint
	ISBN            string
	Title           string
	Author          string
	Category        string
	TotalCopies     int // 馆藏总数
	AvailableCopies int // 可借副本数
	PublishedDate   time.Time
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewBook 创建新图书(工厂方法)
// 新书的可借副本数等于馆藏总数
func NewBook(isbn, title, author, category string, totalCopies int, publishedDate time.Time) *Book {
	now := time.Now()
	b := &Book{
		ISBN:            NormalizeISBN(isbn),
		Title:           title,
		Author:          author,
		Category:        category,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		PublishedDate:   publishedDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.refreshStatus()
	return b
}

// IsDeleted 是否已软删除
func (b *Book) IsDeleted() bool {
	return b.Status == StatusDeleted
}

// CanLend 是否可以借出
func (b *Book) CanLend() bool {
	return !b.IsDeleted() && b.AvailableCopies > 0
}

// BorrowedCopies 已借出副本数
func (b *Book) BorrowedCopies() int {
	return b.TotalCopies - b.AvailableCopies
}

// SetAvailability 直接设置可借副本数
// 不做区间校验,由调用方(借阅服务)保证不变量
func (b *Book) SetAvailability(n int) {
	b.AvailableCopies = n
	b.refreshStatus()
	b.UpdatedAt = time.Now()
}

// Resize 调整馆藏总数
// 可借副本数随总数同步增减,并截断到[0, total]
func (b *Book) Resize(total int) error {
	if total < 0 {
		return ErrInvalidCopies
	}
	available := b.AvailableCopies + (total - b.TotalCopies)
	if available < 0 {
		available = 0
	}
	if available > total {
		available = total
	}
	b.TotalCopies = total
	b.AvailableCopies = available
	b.refreshStatus()
	b.UpdatedAt = time.Now()
	return nil
}

// UpdateInfo 更新图书基本信息(空值表示不修改)
func (b *Book) UpdateInfo(title, author, category string, publishedDate time.Time) {
	if title != "" {
		b.Title = title
	}
	if author != "" {
		b.Author = author
	}
	if category != "" {
		b.Category = category
	}
	if !publishedDate.IsZero() {
		b.PublishedDate = publishedDate
	}
	b.UpdatedAt = time.Now()
}

// MarkDeleted 软删除
func (b *Book) MarkDeleted() {
	b.Status = StatusDeleted
	b.UpdatedAt = time.Now()
}

// refreshStatus 根据可借副本数刷新状态,DELETED保持不变
func (b *Book) refreshStatus() {
	if b.IsDeleted() {
		return
	}
	b.Status = StatusForAvailability(b.AvailableCopies)
}

// StatusForAvailability 未删除图书在给定可借数下的状态
func StatusForAvailability(available int) Status {
	if available > 0 {
		return StatusAvailable
	}
	return StatusUnavailable
}
