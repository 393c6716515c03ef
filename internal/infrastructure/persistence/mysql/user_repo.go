package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// userRepository 读者仓储实现(GORM)
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建读者仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// Create 创建读者
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := toUserModel(u)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		// 邮箱唯一索引冲突
		if isDuplicateError(err) {
			return user.ErrEmailDuplicate
		}
		return apperrors.WrapDB(err, "创建读者失败")
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找读者(包含已删除)
func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var model UserModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, userQueryError(err)
	}
	return toUserEntity(&model), nil
}

// FindByEmail 根据邮箱查找读者
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserModel
	if err := getDB(ctx, r.db).Where("email = ?", email).First(&model).Error; err != nil {
		return nil, userQueryError(err)
	}
	return toUserEntity(&model), nil
}

// Update 更新读者信息
func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	model := toUserModel(u)
	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		if isDuplicateError(err) {
			return user.ErrEmailDuplicate
		}
		return apperrors.WrapDB(err, "更新读者失败")
	}
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// SoftDelete 软删除(status=DELETED),借阅记录保留
func (r *userRepository) SoftDelete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Model(&UserModel{}).
		Where("id = ?", id).
		Update("status", string(user.StatusDeleted))
	if result.Error != nil {
		return apperrors.WrapDB(result.Error, "删除读者失败")
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// List 分页查询未删除的读者,按姓、名排序
func (r *userRepository) List(ctx context.Context, params user.ListParams) ([]*user.User, int64, error) {
	var (
		models []UserModel
		total  int64
	)

	query := r.searchQuery(ctx, params.Keyword)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询读者总数失败")
	}

	query = query.Order("last_name ASC").Order("first_name ASC").Order("id ASC")
	if params.PageSize > 0 {
		query = query.Limit(params.PageSize).Offset(offset(params.Page, params.PageSize))
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询读者列表失败")
	}
	return toUserEntities(models), total, nil
}

// Search 按姓名/邮箱搜索
func (r *userRepository) Search(ctx context.Context, keyword string) ([]*user.User, error) {
	var models []UserModel
	err := r.searchQuery(ctx, keyword).
		Order("last_name ASC").Order("first_name ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.WrapDB(err, "搜索读者失败")
	}
	return toUserEntities(models), nil
}

func (r *userRepository) searchQuery(ctx context.Context, keyword string) *gorm.DB {
	query := getDB(ctx, r.db).Model(&UserModel{}).Where("status <> ?", string(user.StatusDeleted))
	if keyword != "" {
		kw := likePattern(keyword)
		query = query.Where(
			"LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!'",
			kw, kw, kw,
		)
	}
	return query
}

func userQueryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.ErrUserNotFound
	}
	return apperrors.WrapDB(err, "查询读者失败")
}

func toUserModel(u *user.User) *UserModel {
	return &UserModel{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Phone:            u.Phone,
		Type:             string(u.Type),
		Status:           string(u.Status),
		RegistrationDate: u.RegistrationDate,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func toUserEntity(model *UserModel) *user.User {
	return &user.User{
		ID:               model.ID,
		FirstName:        model.FirstName,
		LastName:         model.LastName,
		Email:            model.Email,
		Phone:            model.Phone,
		Type:             user.Type(model.Type),
		Status:           user.Status(model.Status),
		RegistrationDate: model.RegistrationDate,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toUserEntities(models []UserModel) []*user.User {
	users := make([]*user.User, len(models))
	for i := range models {
		users[i] = toUserEntity(&models[i])
	}
	return users
}
