package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现(MySQL/SQLite/内存)
// 2. 所有方法都应从ctx中识别事务,保证借还书在同一事务内执行
// 3. 列表与搜索显式排除DELETED状态
type Repository interface {
	// Create 创建图书
	// ISBN重复时返回ErrISBNDuplicate(由唯一索引保证)
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书(包含已删除的记录)
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByISBN 根据规范化后的ISBN查找图书
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Update 更新图书信息
	Update(ctx context.Context, book *Book) error

	// SoftDelete 软删除(status=DELETED)
	SoftDelete(ctx context.Context, id uint) error

	// List 分页查询未删除的图书
	// PageSize<=0表示不分页,返回全部
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// Search 按书名/作者/分类模糊搜索(不区分大小写),按书名排序
	Search(ctx context.Context, keyword string) ([]*Book, error)

	// LockByID 悲观锁查询图书(SELECT FOR UPDATE),必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Book, error)

	// UpdateAvailability 设置可借副本数
	// 存储层保证 0 <= n <= total_copies,越界返回ErrInvalidAvailability
	UpdateAvailability(ctx context.Context, id uint, n int) error
}

// 排序方式,默认按创建时间倒序
const (
	SortByTitle   = "title_asc"
	SortByCreated = "created_at_desc"
)

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索关键词(书名、作者、分类)
	SortBy   string // 排序字段(title_asc, created_at_desc)
}
