package user

import (
	"context"
)

// Repository 读者仓储接口
// DDD设计说明：
// 1. 接口定义在domain层（依赖倒置原则）
// 2. 具体实现在infrastructure/persistence层
// 3. 便于单元测试（内存实现）
type Repository interface {
	// Create 创建读者
	// 注意：如果邮箱已存在，应返回ErrEmailDuplicate
	Create(ctx context.Context, user *User) error

	// FindByID 根据ID查找读者（包含已删除的记录）
	// 如果不存在，返回ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByEmail 根据邮箱查找读者
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update 更新读者信息
	Update(ctx context.Context, user *User) error

	// SoftDelete 软删除（status=DELETED）
	SoftDelete(ctx context.Context, id uint) error

	// List 分页查询未删除的读者,PageSize<=0表示不分页
	List(ctx context.Context, params ListParams) ([]*User, int64, error)

	// Search 按姓名/邮箱模糊搜索（不区分大小写）
	Search(ctx context.Context, keyword string) ([]*User, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int
	PageSize int
	Keyword  string
}
