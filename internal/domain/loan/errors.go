package loan

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrLoanNotFound 借阅记录不存在
	ErrLoanNotFound = apperrors.New(apperrors.ErrCodeLoanNotFound, "借阅记录不存在")

	// ErrInvalidLoanState 借阅状态不允许此操作(如重复归还)
	ErrInvalidLoanState = apperrors.New(apperrors.ErrCodeInvalidLoanState, "该借阅记录已归还")

	// ErrLoanLimitExceeded 超出每人借阅上限
	ErrLoanLimitExceeded = apperrors.New(apperrors.ErrCodeLoanLimitExceeded, "已达到借阅数量上限")
)
