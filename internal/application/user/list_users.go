package user

import (
	"context"

	"github.com/xiebiao/library/internal/domain/user"
)

// ListUsersUseCase 读者列表查询用例
type ListUsersUseCase struct {
	userService user.Service
}

// NewListUsersUseCase 创建列表查询用例
func NewListUsersUseCase(userService user.Service) *ListUsersUseCase {
	return &ListUsersUseCase{userService: userService}
}

// ListUsersRequest 列表查询请求
type ListUsersRequest struct {
	Page     int
	PageSize int
	Keyword  string // 姓名或邮箱
}

// ListUsersResult 列表查询结果
type ListUsersResult struct {
	Users    []*user.User
	Total    int64
	Page     int
	PageSize int
}

// Execute 执行列表查询(page默认1,pageSize默认20,最大100)
func (uc *ListUsersUseCase) Execute(ctx context.Context, req ListUsersRequest) (*ListUsersResult, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	users, total, err := uc.userService.ListUsers(ctx, user.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
	})
	if err != nil {
		return nil, err
	}

	return &ListUsersResult{
		Users:    users,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}
