package handler

import (
	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// UserHandler 读者HTTP处理器
// 设计说明：
// 1. Handler只负责HTTP相关的事情：解析请求、调用应用层、返回响应
// 2. 不包含业务逻辑（校验规则在领域服务）
type UserHandler struct {
	registerUseCase  *appuser.RegisterUseCase
	listUsersUseCase *appuser.ListUsersUseCase
	userService      user.Service
}

// NewUserHandler 创建读者处理器
func NewUserHandler(
	registerUseCase *appuser.RegisterUseCase,
	listUsersUseCase *appuser.ListUsersUseCase,
	userService user.Service,
) *UserHandler {
	return &UserHandler{
		registerUseCase:  registerUseCase,
		listUsersUseCase: listUsersUseCase,
		userService:      userService,
	}
}

// Register 读者登记
// @Summary      读者登记
// @Description  登记新读者,邮箱唯一
// @Tags         读者
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RegisterUserRequest true "读者信息"
// @Success      200 {object} response.Response{data=dto.UserResponse} "登记成功"
// @Failure      200 {object} response.Response "40911 邮箱格式不正确 / 40003 邮箱已存在"
// @Router       /api/v1/users [post]
func (h *UserHandler) Register(c *gin.Context) {
	// 1. 绑定并验证参数
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	// 2. 调用应用层用例
	u, err := h.registerUseCase.Execute(c.Request.Context(), appuser.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Operator:  middleware.GetUsername(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.NewUserResponse(u))
}

// ListUsers 读者列表
// @Summary      读者列表
// @Description  分页查询读者,keyword匹配姓名或邮箱
// @Tags         读者
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量"
// @Param        keyword   query string false "搜索关键词"
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.UserResponse}}
// @Router       /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.listUsersUseCase.Execute(c.Request.Context(), appuser.ListUsersRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewUserResponses(result.Users), result.Total, result.Page, result.PageSize)
}

// GetUser 读者详情
// @Summary      读者详情
// @Tags         读者
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "读者ID"
// @Success      200 {object} response.Response{data=dto.UserResponse}
// @Router       /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if u.IsDeleted() {
		response.Error(c, user.ErrUserNotFound)
		return
	}
	response.Success(c, dto.NewUserResponse(u))
}

// UpdateUser 更新读者
// @Summary      更新读者
// @Tags         读者
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                   true "读者ID"
// @Param        request body dto.UpdateUserRequest true "更新内容"
// @Success      200 {object} response.Response{data=dto.UserResponse}
// @Router       /api/v1/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	u, err := h.userService.UpdateUser(c.Request.Context(), id, user.UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewUserResponse(u))
}

// DeleteUser 删除读者(软删除)
// @Summary      删除读者
// @Tags         读者
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "读者ID"
// @Success      200 {object} response.Response
// @Router       /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
