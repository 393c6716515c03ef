package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// bookRepository 图书仓储实现(GORM)
// 设计说明:
// 1. 负责domain实体与GORM模型之间的转换
// 2. 唯一索引冲突转换为ErrISBNDuplicate
// 3. 所有查询经getDB(ctx)参与事务
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.WrapDB(err, "创建图书失败")
	}

	// 回填自增ID
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书(包含已删除)
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, bookQueryError(err)
	}
	return toBookEntity(&model), nil
}

// FindByISBN 根据ISBN查找图书
func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).Where("isbn = ?", isbn).First(&model).Error; err != nil {
		return nil, bookQueryError(err)
	}
	return toBookEntity(&model), nil
}

// Update 更新图书信息(整行保存)
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.WrapDB(err, "更新图书失败")
	}
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// SoftDelete 软删除(status=DELETED)
func (r *bookRepository) SoftDelete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Model(&BookModel{}).
		Where("id = ?", id).
		Update("status", string(book.StatusDeleted))
	if result.Error != nil {
		return apperrors.WrapDB(result.Error, "删除图书失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// List 分页查询未删除的图书
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	var (
		models []BookModel
		total  int64
	)

	query := r.searchQuery(ctx, params.Keyword)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询图书总数失败")
	}

	switch params.SortBy {
	case book.SortByTitle:
		query = query.Order("title ASC").Order("id ASC")
	default:
		query = query.Order("created_at DESC").Order("id DESC")
	}

	if params.PageSize > 0 {
		query = query.Limit(params.PageSize).Offset(offset(params.Page, params.PageSize))
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询图书列表失败")
	}
	return toBookEntities(models), total, nil
}

// Search 按书名/作者/分类搜索,按书名排序
func (r *bookRepository) Search(ctx context.Context, keyword string) ([]*book.Book, error) {
	var models []BookModel
	err := r.searchQuery(ctx, keyword).
		Order("title ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.WrapDB(err, "搜索图书失败")
	}
	return toBookEntities(models), nil
}

func (r *bookRepository) searchQuery(ctx context.Context, keyword string) *gorm.DB {
	query := getDB(ctx, r.db).Model(&BookModel{}).Where("status <> ?", string(book.StatusDeleted))
	if keyword != "" {
		kw := likePattern(keyword)
		query = query.Where(
			"LOWER(title) LIKE ? ESCAPE '!' OR LOWER(author) LIKE ? ESCAPE '!' OR LOWER(category) LIKE ? ESCAPE '!'",
			kw, kw, kw,
		)
	}
	return query
}

// LockByID 悲观锁查询(SELECT ... FOR UPDATE),必须在事务中调用
// SQLite方言不生成FOR UPDATE,由单连接保证串行
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.WrapDB(err, "锁定图书失败")
	}
	return toBookEntity(&model), nil
}

// UpdateAvailability 设置可借副本数(条件更新)
// UPDATE books SET available_copies = n, status = ... WHERE id = ? AND n BETWEEN 0 AND total_copies
func (r *bookRepository) UpdateAvailability(ctx context.Context, id uint, n int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Where("? BETWEEN 0 AND total_copies", n).
		Updates(map[string]any{
			"available_copies": n,
			"status": gorm.Expr(
				"CASE WHEN status = ? THEN status WHEN ? > 0 THEN ? ELSE ? END",
				string(book.StatusDeleted), n, string(book.StatusAvailable), string(book.StatusUnavailable),
			),
		})
	if result.Error != nil {
		return apperrors.WrapDB(result.Error, "更新可借数量失败")
	}

	if result.RowsAffected == 0 {
		// 图书不存在,或者超出[0, total]区间,再查一次确定原因
		var model BookModel
		if err := db.First(&model, id).Error; err != nil {
			return bookQueryError(err)
		}
		if n < 0 || n > model.TotalCopies {
			return book.ErrInvalidAvailability
		}
	}
	return nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func bookQueryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return book.ErrBookNotFound
	}
	return apperrors.WrapDB(err, "查询图书失败")
}

func toBookModel(b *book.Book) *BookModel {
	model := &BookModel{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if !b.PublishedDate.IsZero() {
		d := b.PublishedDate
		model.PublishedDate = &d
	}
	return model
}

func toBookEntity(model *BookModel) *book.Book {
	b := &book.Book{
		ID:              model.ID,
		ISBN:            model.ISBN,
		Title:           model.Title,
		Author:          model.Author,
		Category:        model.Category,
		TotalCopies:     model.TotalCopies,
		AvailableCopies: model.AvailableCopies,
		Status:          book.Status(model.Status),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	if model.PublishedDate != nil {
		b.PublishedDate = *model.PublishedDate
	}
	return b
}

func toBookEntities(models []BookModel) []*book.Book {
	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books
}
