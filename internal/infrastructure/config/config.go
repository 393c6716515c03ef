package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/xiebiao/library/internal/domain/loan"
)

// Config 全局配置结构
// 设计说明：使用Viper管理配置，支持YAML文件、环境变量覆盖(前缀LIBRARY)
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Library  LibraryConfig  `mapstructure:"library"`
	Auth     AuthConfig     `mapstructure:"auth"`
	MQ       MQConfig       `mapstructure:"mq"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// 存储驱动
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | sqlite | memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN 生成MySQL连接字符串
// 格式：user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
// 注意：loc参数需要URL编码（Asia/Shanghai → Asia%2FShanghai）
func (d DatabaseConfig) DSN() string {
	loc := url.QueryEscape(d.Loc)
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, d.ParseTime, loc)
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	Issuer             string        `mapstructure:"issuer"`
	AccessTokenExpire  time.Duration `mapstructure:"access_token_expire"`
	RefreshTokenExpire time.Duration `mapstructure:"refresh_token_expire"`
}

type LogConfig struct {
	Level        string `mapstructure:"level"`  // debug | info | warn | error
	Format       string `mapstructure:"format"` // text | json
	Output       string `mapstructure:"output"` // stdout | stderr | /path/to/file
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// LibraryConfig 借阅规则
type LibraryConfig struct {
	LoanPeriodDays  int    `mapstructure:"loan_period_days"`
	FinePerDay      string `mapstructure:"fine_per_day"` // 十进制字符串,如"1.00"
	MaxLoansPerUser int    `mapstructure:"max_loans_per_user"`
	Timezone        string `mapstructure:"timezone"` // 计算"今天"使用的时区,空为本地时区
}

// Policy 转换为领域借阅规则
func (l LibraryConfig) Policy() (loan.Policy, error) {
	fine, err := decimal.NewFromString(strings.TrimSpace(l.FinePerDay))
	if err != nil {
		return loan.Policy{}, fmt.Errorf("无效的每日罚金 %q: %w", l.FinePerDay, err)
	}
	return loan.Policy{
		LoanPeriodDays:  l.LoanPeriodDays,
		FinePerDay:      fine,
		MaxLoansPerUser: l.MaxLoansPerUser,
	}, nil
}

// Location 业务时区
func (l LibraryConfig) Location() (*time.Location, error) {
	if l.Timezone == "" || l.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(l.Timezone)
}

// Clock 返回业务时区下的当前时间函数
func (l LibraryConfig) Clock() (func() time.Time, error) {
	loc, err := l.Location()
	if err != nil {
		return nil, fmt.Errorf("无效的时区 %q: %w", l.Timezone, err)
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

// AuthConfig 馆员账号(单账号,密码为bcrypt哈希)
type AuthConfig struct {
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

type MQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
}

// NotifierConfig 逾期提醒
type NotifierConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type CacheConfig struct {
	ReportTTL time.Duration `mapstructure:"report_ttl"`
}

// setDefaults 默认值(配置文件缺省时生效)
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.loc", "Local")
	v.SetDefault("database.sqlite_path", "library.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("jwt.secret", "your-secret-key-change-in-production")
	v.SetDefault("jwt.issuer", "library")
	v.SetDefault("jwt.access_token_expire", 2*time.Hour)
	v.SetDefault("jwt.refresh_token_expire", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("library.loan_period_days", loan.DefaultLoanPeriodDays)
	v.SetDefault("library.fine_per_day", "1.00")
	v.SetDefault("library.max_loans_per_user", loan.DefaultMaxLoansPerUser)

	v.SetDefault("auth.admin_username", "admin")

	v.SetDefault("mq.exchange", "library.events")
	v.SetDefault("mq.queue", "library.notifications")

	v.SetDefault("tracing.service_name", "library")
	v.SetDefault("tracing.endpoint", "localhost:4317")

	v.SetDefault("notifier.interval", time.Hour)
	v.SetDefault("cache.report_ttl", time.Minute)
}

// Load 加载配置
// 1. path非空时读取指定文件,否则在./config和.下查找config.yaml(找不到则只用默认值)
// 2. 环境变量覆盖(如LIBRARY_DATABASE_DRIVER → database.driver)
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvPrefix("LIBRARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}

	switch cfg.Database.Driver {
	case DriverMySQL, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("不支持的存储驱动: %q", cfg.Database.Driver)
	}

	if cfg.Library.LoanPeriodDays <= 0 {
		return fmt.Errorf("借期必须大于0: %d", cfg.Library.LoanPeriodDays)
	}
	if cfg.Library.MaxLoansPerUser < 0 {
		return fmt.Errorf("借阅上限不能为负: %d", cfg.Library.MaxLoansPerUser)
	}
	policy, err := cfg.Library.Policy()
	if err != nil {
		return err
	}
	if policy.FinePerDay.IsNegative() {
		return fmt.Errorf("每日罚金不能为负: %s", cfg.Library.FinePerDay)
	}
	if _, err := cfg.Library.Location(); err != nil {
		return fmt.Errorf("无效的时区 %q: %w", cfg.Library.Timezone, err)
	}

	if cfg.JWT.Secret == "your-secret-key-change-in-production" && cfg.Server.Mode == "release" {
		return fmt.Errorf("生产环境必须修改JWT密钥")
	}

	return nil
}
