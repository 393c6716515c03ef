package mysql

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. database.driver=mysql使用MySQL,sqlite使用单文件数据库(同一套GORM模型)
// 2. 开发环境开启SQL日志
// 3. SQLite只允许一个连接,事务之间天然串行
func NewDB(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	// 1. 选择方言
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.Database.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.Database.SQLitePath))
	default:
		return nil, fmt.Errorf("不支持的SQL驱动: %q", cfg.Database.Driver)
	}

	// 2. 配置GORM日志
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 3. 连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	if cfg.Database.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	// 4. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.Info("数据库连接成功", "driver", cfg.Database.Driver)

	// 5. 自动迁移
	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	return db, nil
}

// sqliteDSN 打开外键约束并设置忙等待
func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// AutoMigrate 迁移表结构
// AutoMigrate只会创建表、添加字段,不会删除或修改现有字段
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BookModel{},
		&UserModel{},
		&LoanModel{},
	)
}

// BookModel GORM图书模型
// 设计说明:
// 1. ISBN唯一索引(包含已删除记录),是重复判断的最终依据
// 2. 删除为软删除,status=DELETED
// 3. available_copies只通过UpdateAvailability的条件更新修改
type BookModel struct {
	ID              uint       `gorm:"primaryKey"`
	ISBN            string     `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title           string     `gorm:"index:idx_search;size:200;not null;comment:书名"`
	Author          string     `gorm:"index:idx_search;size:100;not null;comment:作者"`
	Category        string     `gorm:"size:100;comment:分类"`
	TotalCopies     int        `gorm:"not null;default:0;comment:馆藏总数"`
	AvailableCopies int        `gorm:"not null;default:0;comment:可借副本数"`
	PublishedDate   *time.Time `gorm:"type:date;comment:出版日期"`
	Status          string     `gorm:"index;size:20;not null;comment:状态(AVAILABLE/UNAVAILABLE/DELETED)"`
	CreatedAt       time.Time  `gorm:"index;comment:创建时间"`
	UpdatedAt       time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// UserModel GORM读者模型
type UserModel struct {
	ID               uint      `gorm:"primaryKey"`
	FirstName        string    `gorm:"size:50;not null;comment:名"`
	LastName         string    `gorm:"index;size:50;not null;comment:姓"`
	Email            string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Phone            string    `gorm:"size:20;comment:手机号"`
	Type             string    `gorm:"size:20;not null;comment:读者类型"`
	Status           string    `gorm:"index;size:20;not null;comment:状态(ACTIVE/DELETED)"`
	RegistrationDate time.Time `gorm:"type:date;not null;comment:注册日期"`
	CreatedAt        time.Time `gorm:"comment:创建时间"`
	UpdatedAt        time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// LoanModel GORM借阅模型
// 设计说明:
// 1. 表名沿用transactions
// 2. 罚金使用decimal(10,2),避免浮点误差
// 3. (user_id, status)复合索引用于在借数量统计
type LoanModel struct {
	ID         uint            `gorm:"primaryKey"`
	BookID     uint            `gorm:"index;not null;comment:图书ID"`
	UserID     uint            `gorm:"index:idx_user_status;not null;comment:读者ID"`
	BorrowDate time.Time       `gorm:"type:date;not null;comment:借出日期"`
	DueDate    time.Time       `gorm:"type:date;index;not null;comment:应还日期"`
	ReturnDate *time.Time      `gorm:"type:date;comment:归还日期"`
	Status     string          `gorm:"index:idx_user_status;size:20;not null;comment:状态(BORROWED/RETURNED/OVERDUE)"`
	FineAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0;comment:罚金"`
	CreatedAt  time.Time       `gorm:"comment:创建时间"`
	UpdatedAt  time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (LoanModel) TableName() string {
	return "transactions"
}
