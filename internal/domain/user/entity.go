package user

import (
	"time"
)

// Type 读者类型
type Type string

const (
	TypeMember Type = "MEMBER"
)

// Status 读者状态
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusDeleted Status = "DELETED" // 软删除,终态
)

// User 读者实体（聚合根）
// DDD设计说明：
// 1. 邮箱为业务唯一标识（数据库UNIQUE索引保证）
// 2. 手机号可选,存储去除分隔符后的形式
// 3. RegistrationDate只保留日期部分
type User struct {
	ID               uint
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Type             Type
	Status           Status
	RegistrationDate time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewUser 创建新读者（工厂方法）
func NewUser(firstName, lastName, email, phone string, registeredOn time.Time) *User {
	now := time.Now()
	return &User{
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		Phone:            phone,
		Type:             TypeMember,
		Status:           StatusActive,
		RegistrationDate: registeredOn,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// FullName 姓名
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsActive 是否可借阅
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// IsDeleted 是否已软删除
func (u *User) IsDeleted() bool {
	return u.Status == StatusDeleted
}

// MarkDeleted 软删除
func (u *User) MarkDeleted() {
	u.Status = StatusDeleted
	u.UpdatedAt = time.Now()
}
