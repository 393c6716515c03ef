package book

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在(含已删除)
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeISBNDuplicate, "ISBN号已存在")

	// ErrInvalidISBN ISBN格式不正确
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidISBN, "ISBN格式不正确(需为10位或13位)")

	// ErrInvalidTitle 书名为空
	ErrInvalidTitle = apperrors.New(apperrors.ErrCodeInvalidParams, "书名不能为空")

	// ErrInvalidAuthor 作者为空
	ErrInvalidAuthor = apperrors.New(apperrors.ErrCodeInvalidParams, "作者不能为空")

	// ErrInvalidCopies 馆藏数量不合法
	ErrInvalidCopies = apperrors.New(apperrors.ErrCodeInvalidParams, "馆藏数量不能为负数")

	// ErrInvalidAvailability 可借数量越界
	ErrInvalidAvailability = apperrors.New(apperrors.ErrCodeInvalidParams, "可借数量必须在0到馆藏总数之间")

	// ErrBookUnavailable 无可借副本
	ErrBookUnavailable = apperrors.New(apperrors.ErrCodeBookUnavailable, "该书暂无可借副本")
)
