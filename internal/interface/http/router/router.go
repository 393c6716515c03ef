// Package router 注册HTTP路由
package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	Book   *handler.BookHandler
	User   *handler.UserHandler
	Loan   *handler.LoanHandler
	Report *handler.ReportHandler
	Auth   *handler.AuthHandler
}

// New 创建Gin引擎并注册路由
// 中间件执行顺序：Recovery → RequestID → Tracing → Logger → Metrics → 路由匹配 → Auth → Handler
func New(log *slog.Logger, h *Handlers, authMiddleware *middleware.AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.CustomRecovery(func(c *gin.Context, rec any) {
			log.ErrorContext(c.Request.Context(), "panic", "error", rec, "path", c.Request.URL.Path)
			response.Error(c, apperrors.ErrInternal)
			c.Abort()
		}),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Logger(log),
		middleware.Metrics(),
	)

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// 访问 http://localhost:8080/swagger/index.html 查看API文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.Refresh)
			authGroup.POST("/logout", authMiddleware.RequireAuth(), h.Auth.Logout)
		}

		// 图书查询公开,变更需要馆员登录
		books := v1.Group("/books")
		{
			books.GET("", h.Book.ListBooks)
			books.GET("/:id", h.Book.GetBook)
			books.POST("", authMiddleware.RequireAuth(), h.Book.CreateBook)
			books.PUT("/:id", authMiddleware.RequireAuth(), h.Book.UpdateBook)
			books.DELETE("/:id", authMiddleware.RequireAuth(), h.Book.DeleteBook)
		}

		staff := v1.Group("")
		staff.Use(authMiddleware.RequireAuth())
		{
			users := staff.Group("/users")
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.Register)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			loans := staff.Group("/loans")
			{
				loans.GET("", h.Loan.ListLoans)
				loans.POST("", h.Loan.Borrow)
				loans.GET("/overdue", h.Loan.ListOverdue)
				loans.GET("/:id", h.Loan.GetLoan)
				loans.GET("/:id/fine", h.Loan.PreviewFine)
				loans.POST("/:id/return", h.Loan.Return)
			}

			reports := staff.Group("/reports")
			{
				reports.GET("/inventory", h.Report.Inventory)
				reports.GET("/overdue", h.Report.Overdue)
			}
		}
	}

	return r
}
