package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

// Service 读者领域服务
// 设计说明：
// 1. Service包含读者的校验与变更规则
// 2. Service依赖Repository接口，不依赖具体实现（依赖倒置）
// 3. 邮箱唯一性最终由数据库UNIQUE索引保证
type Service interface {
	// Register 注册读者
	Register(ctx context.Context, firstName, lastName, email, phone string) (*User, error)

	// GetUser 根据ID获取读者（包含已删除的记录）
	GetUser(ctx context.Context, id uint) (*User, error)

	// GetUserByEmail 根据邮箱获取读者
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsers 分页查询读者（排除已删除）
	ListUsers(ctx context.Context, params ListParams) ([]*User, int64, error)

	// SearchUsers 按姓名或邮箱搜索
	SearchUsers(ctx context.Context, keyword string) ([]*User, error)

	// UpdateUser 更新读者信息
	UpdateUser(ctx context.Context, id uint, params UpdateParams) (*User, error)

	// DeleteUser 软删除读者
	DeleteUser(ctx context.Context, id uint) error
}

// UpdateParams 读者更新参数（空值表示不修改,Phone为nil表示不修改）
type UpdateParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     *string
}

type service struct {
	repo Repository
	now  func() time.Time
}

// Option 读者服务可选项
type Option func(*service)

// WithClock 指定业务时区下的时钟,注册日期取该时钟的当天
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewService 创建读者服务
func NewService(repo Repository, opts ...Option) Service {
	s := &service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[+]?[1-9]\d{1,14}$`)
)

// Register 注册读者
// 业务规则：
// 1. 姓名不能为空
// 2. 邮箱格式校验
// 3. 手机号可选,填写时需符合E.164格式
// 4. 注册日期为当天
func (s *service) Register(ctx context.Context, firstName, lastName, email, phone string) (*User, error) {
	// 1. 字段校验
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	email = NormalizeEmail(email)
	if err := validateNames(firstName, lastName); err != nil {
		return nil, err
	}
	if !IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	phone = NormalizePhone(phone)
	if phone != "" && !IsValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	// 2. 快速路径:邮箱已存在
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrEmailDuplicate
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	// 3. 持久化（并发重复由唯一索引兜底）
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	user := NewUser(firstName, lastName, email, phone, today)
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser 根据ID获取读者
func (s *service) GetUser(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetUserByEmail 根据邮箱获取读者
func (s *service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, NormalizeEmail(email))
}

// ListUsers 分页查询读者
func (s *service) ListUsers(ctx context.Context, params ListParams) ([]*User, int64, error) {
	params.Keyword = strings.TrimSpace(params.Keyword)
	return s.repo.List(ctx, params)
}

// SearchUsers 搜索读者,关键词为空时返回全部
func (s *service) SearchUsers(ctx context.Context, keyword string) ([]*User, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		users, _, err := s.repo.List(ctx, ListParams{})
		return users, err
	}
	return s.repo.Search(ctx, keyword)
}

// UpdateUser 更新读者信息
func (s *service) UpdateUser(ctx context.Context, id uint, params UpdateParams) (*User, error) {
	// 1. 查询读者
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted() {
		return nil, ErrUserNotFound
	}

	// 2. 合并字段
	if v := strings.TrimSpace(params.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(params.LastName); v != "" {
		user.LastName = v
	}
	if params.Email != "" {
		email := NormalizeEmail(params.Email)
		if !IsValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		user.Email = email
	}
	if params.Phone != nil {
		phone := NormalizePhone(*params.Phone)
		if phone != "" && !IsValidPhone(phone) {
			return nil, ErrInvalidPhone
		}
		user.Phone = phone
	}
	user.UpdatedAt = time.Now()

	// 3. 持久化（邮箱冲突由仓储转换为ErrEmailDuplicate）
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser 软删除读者
func (s *service) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsDeleted() {
		return ErrUserNotFound
	}
	return s.repo.SoftDelete(ctx, id)
}

// =========================================
// 辅助函数：业务规则校验
// =========================================

// NormalizeEmail 去除首尾空格并转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone 去除连字符与空格
func NormalizePhone(phone string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(phone))
}

// IsValidEmail 邮箱格式校验
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone 手机号格式校验（E.164）
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

func validateNames(firstName, lastName string) error {
	if firstName == "" {
		return ErrInvalidFirstName
	}
	if lastName == "" {
		return ErrInvalidLastName
	}
	return nil
}
