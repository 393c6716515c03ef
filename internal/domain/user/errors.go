package user

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 读者领域错误定义
var (
	ErrUserNotFound     = apperrors.New(apperrors.ErrCodeUserNotFound, "读者不存在")
	ErrEmailDuplicate   = apperrors.New(apperrors.ErrCodeEmailDuplicate, "邮箱已被注册")
	ErrInvalidEmail     = apperrors.New(apperrors.ErrCodeInvalidEmail, "邮箱格式不正确")
	ErrInvalidPhone     = apperrors.New(apperrors.ErrCodeInvalidPhone, "手机号格式不正确")
	ErrInvalidFirstName = apperrors.New(apperrors.ErrCodeInvalidParams, "名不能为空")
	ErrInvalidLastName  = apperrors.New(apperrors.ErrCodeInvalidParams, "姓不能为空")
	ErrUserInactive     = apperrors.New(apperrors.ErrCodeUserInactive, "读者状态不允许借阅")
)
