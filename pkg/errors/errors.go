package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使包装后的哨兵错误仍能被errors.Is识别
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Kind 错误分类
func (e *AppError) Kind() Kind {
	return KindOf(e.Code)
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// WrapDB 包装存储层错误，归类为PersistenceError
func WrapDB(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeDatabaseError,
		Message: message,
		Err:     err,
	}
}

// WrapMQ 包装消息队列错误,errors.Is(err, ErrMQError)成立
func WrapMQ(err error) *AppError {
	return &AppError{
		Code:    ErrCodeMQError,
		Message: ErrMQError.Message,
		Err:     err,
	}
}

// WithReason 在哨兵错误基础上附加具体原因，错误码不变
// 例如：ErrInvalidParams.WithReason("书名不能为空")
func (e *AppError) WithReason(reason string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message + ": " + reason,
		Err:     e,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、外部服务调用失败）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeMQError       = 50003 // 消息队列错误

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 密码错误

	// 资源错误（40400-40499）
	ErrCodeUserNotFound = 40401 // 读者不存在
	ErrCodeBookNotFound = 40402 // 图书不存在
	ErrCodeLoanNotFound = 40404 // 借阅记录不存在

	// 业务规则错误（40000-40099）
	ErrCodeEmailDuplicate    = 40003 // 邮箱已存在
	ErrCodeISBNDuplicate     = 40004 // ISBN已存在
	ErrCodeBookUnavailable   = 40006 // 无可借副本
	ErrCodeInvalidLoanState  = 40007 // 借阅状态不允许此操作
	ErrCodeLoanLimitExceeded = 40008 // 超出借阅上限
	ErrCodeUserInactive      = 40010 // 读者状态不可借阅

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
	ErrCodeInvalidISBN   = 40910 // ISBN格式不正确
	ErrCodeInvalidEmail  = 40911 // 邮箱格式不正确
	ErrCodeInvalidPhone  = 40912 // 手机号格式不正确
)

// =========================================
// 错误分类
// =========================================

// Kind 错误大类，调用方据此区分处理方式
type Kind int

const (
	KindUnknown     Kind = iota
	KindNotFound         // 资源不存在
	KindValidation       // 参数或唯一性校验失败
	KindConflict         // 状态冲突（无可借副本、重复归还等）
	KindPersistence      // 存储、缓存、消息等服务端故障
	KindAuth             // 认证授权
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationError"
	case KindConflict:
		return "StateConflict"
	case KindPersistence:
		return "PersistenceError"
	case KindAuth:
		return "AuthError"
	default:
		return "Unknown"
	}
}

// KindOf 根据错误码区间判断错误大类
func KindOf(code int) Kind {
	switch {
	case code >= 40400 && code < 40500:
		return KindNotFound
	case code >= 40900 && code < 41000:
		return KindValidation
	case code == ErrCodeEmailDuplicate, code == ErrCodeISBNDuplicate:
		return KindValidation
	case code >= 40000 && code < 40100:
		return KindConflict
	case code >= 40100 && code < 40200:
		return KindAuth
	case code >= 50000 && code < 50100:
		return KindPersistence
	default:
		return KindUnknown
	}
}

// KindOfError 提取任意错误的分类（非AppError视为Unknown）
func KindOfError(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindUnknown
}

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal   = New(ErrCodeInternal, "系统内部错误")
	ErrRedisError = New(ErrCodeRedisError, "缓存服务错误")
	ErrMQError    = New(ErrCodeMQError, "消息服务错误")

	// 认证授权
	ErrUnauthorized    = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "用户名或密码错误")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
)

// =========================================
// 辅助函数
// =========================================

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	return KindOfError(err) == kind
}
