package dto

import "github.com/xiebiao/library/internal/domain/user"

// RegisterUserRequest HTTP读者登记请求
// 邮箱与手机号格式由领域服务校验,统一返回业务错误码
type RegisterUserRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50" example:"Ada"`
	LastName  string `json:"last_name" binding:"required,max=50" example:"Lovelace"`
	Email     string `json:"email" binding:"required,max=100" example:"ada@example.com"`
	Phone     string `json:"phone" binding:"max=20" example:"+8613800138000"`
}

// UpdateUserRequest HTTP读者更新请求(省略的字段不修改,phone传空串表示清除)
type UpdateUserRequest struct {
	FirstName string  `json:"first_name" binding:"max=50"`
	LastName  string  `json:"last_name" binding:"max=50"`
	Email     string  `json:"email" binding:"max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
}

// ListUsersRequest HTTP读者列表请求
type ListUsersRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Keyword  string `form:"keyword" binding:"omitempty,max=100"`
}

// UserResponse 读者信息
type UserResponse struct {
	ID               uint   `json:"id" example:"1"`
	FirstName        string `json:"first_name" example:"Ada"`
	LastName         string `json:"last_name" example:"Lovelace"`
	FullName         string `json:"full_name" example:"Ada Lovelace"`
	Email            string `json:"email" example:"ada@example.com"`
	Phone            string `json:"phone,omitempty"`
	Type             string `json:"type" example:"MEMBER"`
	Status           string `json:"status" example:"ACTIVE"`
	RegistrationDate string `json:"registration_date" example:"2024-01-15"`
	CreatedAt        string `json:"created_at"`
}

// NewUserResponse 领域实体 → HTTP响应
func NewUserResponse(u *user.User) *UserResponse {
	return &UserResponse{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		FullName:         u.FullName(),
		Email:            u.Email,
		Phone:            u.Phone,
		Type:             string(u.Type),
		Status:           string(u.Status),
		RegistrationDate: FormatDate(u.RegistrationDate),
		CreatedAt:        u.CreatedAt.Format(DateTimeLayout),
	}
}

// NewUserResponses 批量转换
func NewUserResponses(users []*user.User) []*UserResponse {
	list := make([]*UserResponse, len(users))
	for i, u := range users {
		list[i] = NewUserResponse(u)
	}
	return list
}
