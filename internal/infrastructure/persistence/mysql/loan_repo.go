package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/loan"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// loanRepository 借阅仓储实现(GORM,transactions表)
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository 创建借阅仓储
func NewLoanRepository(db *gorm.DB) loan.Repository {
	return &loanRepository{db: db}
}

// Create 创建借阅记录
func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	model := toLoanModel(l)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.WrapDB(err, "创建借阅记录失败")
	}
	l.ID = model.ID
	l.CreatedAt = model.CreatedAt
	l.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, loanQueryError(err)
	}
	return toLoanEntity(&model), nil
}

// LockByID 悲观锁查询,防止并发重复归还
func (r *loanRepository) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error
	if err != nil {
		return nil, loanQueryError(err)
	}
	return toLoanEntity(&model), nil
}

// Update 更新归还信息
// 条件更新 status=BORROWED,已归还的记录不会被二次修改
func (r *loanRepository) Update(ctx context.Context, l *loan.Loan) error {
	result := getDB(ctx, r.db).Model(&LoanModel{}).
		Where("id = ? AND status = ?", l.ID, string(loan.StatusBorrowed)).
		Updates(map[string]any{
			"return_date": l.ReturnDate,
			"status":      string(l.Status),
			"fine_amount": l.FineAmount,
		})
	if result.Error != nil {
		return apperrors.WrapDB(result.Error, "更新借阅记录失败")
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, l.ID); err != nil {
			return err
		}
		return loan.ErrInvalidLoanState
	}
	return nil
}

// List 全部借阅记录
func (r *loanRepository) List(ctx context.Context) ([]*loan.Loan, error) {
	return r.find(getDB(ctx, r.db), "按借出日期查询借阅记录失败")
}

// ListByUser 某读者的借阅记录
func (r *loanRepository) ListByUser(ctx context.Context, userID uint) ([]*loan.Loan, error) {
	return r.find(getDB(ctx, r.db).Where("user_id = ?", userID), "查询读者借阅记录失败")
}

// ListByBook 某图书的借阅记录
func (r *loanRepository) ListByBook(ctx context.Context, bookID uint) ([]*loan.Loan, error) {
	return r.find(getDB(ctx, r.db).Where("book_id = ?", bookID), "查询图书借阅记录失败")
}

// ListOverdue 截至asOf逾期未还的记录,按应还日期正序
func (r *loanRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*loan.Loan, error) {
	var models []LoanModel
	err := getDB(ctx, r.db).
		Where("status = ? AND due_date < ?", string(loan.StatusBorrowed), loan.DateOf(asOf)).
		Order("due_date ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.WrapDB(err, "查询逾期记录失败")
	}
	return toLoanEntities(models), nil
}

// CountActiveByUser 某读者在借数量
func (r *loanRepository) CountActiveByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&LoanModel{}).
		Where("user_id = ? AND status = ?", userID, string(loan.StatusBorrowed)).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.WrapDB(err, "统计在借数量失败")
	}
	return count, nil
}

func (r *loanRepository) find(query *gorm.DB, msg string) ([]*loan.Loan, error) {
	var models []LoanModel
	if err := query.Order("borrow_date DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, apperrors.WrapDB(err, msg)
	}
	return toLoanEntities(models), nil
}

func loanQueryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return loan.ErrLoanNotFound
	}
	return apperrors.WrapDB(err, "查询借阅记录失败")
}

func toLoanModel(l *loan.Loan) *LoanModel {
	return &LoanModel{
		ID:         l.ID,
		BookID:     l.BookID,
		UserID:     l.UserID,
		BorrowDate: l.BorrowDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     string(l.Status),
		FineAmount: l.FineAmount,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func toLoanEntity(model *LoanModel) *loan.Loan {
	return &loan.Loan{
		ID:         model.ID,
		BookID:     model.BookID,
		UserID:     model.UserID,
		BorrowDate: model.BorrowDate,
		DueDate:    model.DueDate,
		ReturnDate: model.ReturnDate,
		Status:     loan.Status(model.Status),
		FineAmount: model.FineAmount,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toLoanEntities(models []LoanModel) []*loan.Loan {
	loans := make([]*loan.Loan, len(models))
	for i := range models {
		loans[i] = toLoanEntity(&models[i])
	}
	return loans
}
