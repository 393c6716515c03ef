package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// shutdownTimeout 等待进行中请求完成的最长时间
const shutdownTimeout = 10 * time.Second

// Serve 启动HTTP服务与逾期提醒,ctx取消后优雅关闭
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      a.Engine,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("HTTP服务启动",
			"addr", srv.Addr,
			"driver", a.Config.Database.Driver,
			"swagger", "/swagger/index.html",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.Config.Notifier.Enabled {
		g.Go(func() error {
			return a.Notifier.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		a.Log.Info("正在优雅关闭服务...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
