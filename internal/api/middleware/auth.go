package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"p4-dashboard/internal/service"
	"p4-dashboard/pkg/jwt"
	"p4-dashboard/pkg/response"
)

// JWTAuth 登录闸门中间件
// 从 Authorization: Bearer <token> 中提取 Access Token，校验签名、过期与黑名单
func JWTAuth(authSvc service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "Header otorisasi tidak ada")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, 10002, "Format header otorisasi tidak valid")
			c.Abort()
			return
		}

		claims, err := authSvc.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				response.Unauthorized(c, 11003, "Sesi telah berakhir, silakan login kembali")
			case errors.Is(err, service.ErrTokenRevoked):
				response.Unauthorized(c, 11002, "Sesi sudah logout")
			default:
				response.Unauthorized(c, 10002, "Token tidak valid")
			}
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Jenis token tidak valid")
			c.Abort()
			return
		}

		// 将操作员信息注入上下文
		c.Set("username", claims.Username)
		c.Set("claims", claims)

		c.Next()
	}
}
