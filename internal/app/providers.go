// Package app 组装应用:配置 → 存储 → 领域服务 → 应用服务 → HTTP
//
// 依赖关系由Wire在编译期生成(wire.go → wire_gen.go),
// cmd/api与cmd/libctl共用同一套组装代码。
package app

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xiebiao/library/internal/application/auth"
	appbook "github.com/xiebiao/library/internal/application/book"
	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/application/notify"
	"github.com/xiebiao/library/internal/application/report"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/messaging"
	"github.com/xiebiao/library/internal/infrastructure/persistence"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/mq"
)

// App 组装完成的应用
type App struct {
	Config *config.Config
	Log    *slog.Logger
	Repos  *persistence.Repositories

	Books     book.Service
	Users     user.Service
	Loans     *apploan.Service
	Reports   *report.Service
	Auth      *auth.Service
	Notifier  *notify.Notifier
	AddBook   *appbook.AddBookUseCase
	ListBooks *appbook.ListBooksUseCase
	Register  *appuser.RegisterUseCase
	ListUsers *appuser.ListUsersUseCase

	Engine *gin.Engine
}

// ========================================
// Wire Provider Sets
// ========================================

// infrastructureSet 存储、缓存、消息
var infrastructureSet = wire.NewSet(
	provideRepositories,
	provideBookRepository,
	provideUserRepository,
	provideLoanRepository,
	provideBookTx,
	provideLoanTx,
	provideRedis,
	provideTokenStore,
	provideReportCache,
	provideMQPublisher,
	provideEventPublisher,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	book.NewService,
	provideUserService,
)

// applicationSet 应用服务与用例
var applicationSet = wire.NewSet(
	provideLoanOptions,
	apploan.NewService,
	report.NewService,
	provideJWTManager,
	provideAuthService,
	provideNotifier,
	appbook.NewAddBookUseCase,
	appbook.NewListBooksUseCase,
	appuser.NewRegisterUseCase,
	appuser.NewListUsersUseCase,
)

// httpSet 中间件、处理器、路由
var httpSet = wire.NewSet(
	provideRevocationChecker,
	middleware.NewAuthMiddleware,
	handler.NewBookHandler,
	handler.NewUserHandler,
	handler.NewLoanHandler,
	handler.NewReportHandler,
	handler.NewAuthHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideEngine,
)

// ========================================
// 存储
// ========================================

func provideRepositories(cfg *config.Config, log *slog.Logger) (*persistence.Repositories, func(), error) {
	repos, err := persistence.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := repos.Close(); err != nil {
			log.Warn("关闭数据库连接失败", "error", err)
		}
	}
	return repos, cleanup, nil
}

func provideBookRepository(r *persistence.Repositories) book.Repository { return r.Books }
func provideUserRepository(r *persistence.Repositories) user.Repository { return r.Users }
func provideLoanRepository(r *persistence.Repositories) loan.Repository { return r.Loans }
func provideBookTx(r *persistence.Repositories) book.TxManager          { return r.Tx }
func provideLoanTx(r *persistence.Repositories) apploan.TxManager       { return r.Tx }

// provideRedis redis.enabled=false时返回nil,下游退化为内存实现
func provideRedis(ctx context.Context, cfg *config.Config, log *slog.Logger) (*goredis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideTokenStore(client *goredis.Client) auth.TokenStore {
	if client == nil {
		return memory.NewSessionStore()
	}
	return redis.NewSessionStore(client)
}

func provideReportCache(client *goredis.Client, cfg *config.Config) report.Cache {
	if client == nil {
		return report.NopCache{}
	}
	return redis.NewReportCache(client, cfg.Cache.ReportTTL)
}

// ========================================
// 消息
// ========================================

// provideMQPublisher mq.enabled=false时返回nil
func provideMQPublisher(cfg *config.Config, log *slog.Logger) (*mq.Publisher, func(), error) {
	if !cfg.MQ.Enabled {
		return nil, func() {}, nil
	}
	p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, mq.ExchangeTopic, log)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = p.Close() }, nil
}

// provideEventPublisher 借阅事件订阅方:报表缓存失效 + RabbitMQ(启用时)
func provideEventPublisher(p *mq.Publisher, cache report.Cache, log *slog.Logger) apploan.EventPublisher {
	publishers := apploan.MultiPublisher{report.InvalidateOnLoanEvent(cache)}
	if p != nil {
		publishers = append(publishers, messaging.NewEventPublisher(p, nil, log))
	}
	return publishers
}

// ========================================
// 服务
// ========================================

// provideUserService 注册日期与借阅使用同一业务时区
func provideUserService(repo user.Repository, cfg *config.Config) (user.Service, error) {
	clock, err := cfg.Library.Clock()
	if err != nil {
		return nil, err
	}
	return user.NewService(repo, user.WithClock(clock)), nil
}

func provideLoanOptions(cfg *config.Config) (apploan.Options, error) {
	policy, err := cfg.Library.Policy()
	if err != nil {
		return apploan.Options{}, err
	}
	clock, err := cfg.Library.Clock()
	if err != nil {
		return apploan.Options{}, err
	}
	return apploan.Options{Policy: policy, Clock: clock}, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

func provideAuthService(cfg *config.Config, jwtManager *jwt.Manager, store auth.TokenStore, log *slog.Logger) *auth.Service {
	return auth.NewService(auth.Credentials{
		Username:     cfg.Auth.AdminUsername,
		PasswordHash: cfg.Auth.AdminPasswordHash,
	}, jwtManager, store, cfg.JWT.RefreshTokenExpire, log)
}

func provideNotifier(cfg *config.Config, loans *apploan.Service, publisher apploan.EventPublisher, log *slog.Logger) *notify.Notifier {
	return notify.NewNotifier(loans, publisher, cfg.Notifier.Interval, log)
}

// ========================================
// HTTP
// ========================================

func provideRevocationChecker(a *auth.Service) middleware.RevocationChecker { return a }

func provideEngine(cfg *config.Config, log *slog.Logger, handlers *router.Handlers, authMiddleware *middleware.AuthMiddleware) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	return router.New(log, handlers, authMiddleware)
}
