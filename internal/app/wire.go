//go:build wireinject
// +build wireinject

// 修改Provider后运行 `wire gen ./internal/app` 重新生成wire_gen.go

package app

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// Initialize 根据配置组装应用
// 返回的cleanup按创建的逆序释放连接
func Initialize(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		httpSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
