package dto

// LoginRequest 馆员登录
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50" example:"librarian"`
	Password string `json:"password" binding:"required,max=72" example:"secret"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Username     string `json:"username" example:"librarian"`
	Role         string `json:"role" example:"staff"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in" example:"7200"` // Access Token有效期(秒)
}

// RefreshRequest 刷新Token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse 刷新结果
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}
