package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=128"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // Access Token 有效期（秒）
	Username    string `json:"username"`
}

// MeResponse 当前登录的操作员
type MeResponse struct {
	Username  string `json:"username"`
	ExpiresAt string `json:"expires_at"`
}
