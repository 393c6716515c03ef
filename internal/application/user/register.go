package user

import (
	"context"
	"log/slog"

	"github.com/xiebiao/library/internal/domain/user"
)

// RegisterUseCase 读者登记用例
// 设计说明：
// 1. Application层负责用例编排，校验规则在领域服务
// 2. 邮箱唯一性以存储层唯一索引为准
type RegisterUseCase struct {
	userService user.Service
	log         *slog.Logger
}

// NewRegisterUseCase 创建登记用例
func NewRegisterUseCase(userService user.Service, log *slog.Logger) *RegisterUseCase {
	return &RegisterUseCase{
		userService: userService,
		log:         log,
	}
}

// RegisterRequest 登记请求
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string // 可选
	Operator  string
}

// Execute 执行登记
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*user.User, error) {
	u, err := uc.userService.Register(ctx, req.FirstName, req.LastName, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}

	uc.log.InfoContext(ctx, "读者登记", "user_id", u.ID, "operator", req.Operator)
	return u, nil
}
