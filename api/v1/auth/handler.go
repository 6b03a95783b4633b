package auth

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"

	"go_domainbot/internal/auth"
	"go_domainbot/internal/config"
	"go_domainbot/internal/httpx"
)

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response data
type LoginResponse struct {
	Token    string `json:"token"`
	ExpireAt string `json:"expireAt"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginHandler exchanges the configured admin credentials for a JWT
func LoginHandler(admin config.AdminConfig, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
			return
		}

		// same answer for unknown user and wrong password
		userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(admin.Username)) == 1
		if err := auth.ComparePassword(admin.PasswordHash, req.Password); err != nil || !userOK {
			httpx.FailErr(c, httpx.ErrInvalidToken("invalid credentials"))
			return
		}

		expireAt := time.Now().Add(time.Duration(jwtCfg.ExpireMinutes) * time.Minute)
		token, err := auth.GenerateToken(admin.Username, auth.RoleAdmin, expireAt, jwtCfg.Issuer)
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to generate token", err))
			return
		}

		httpx.OK(c, LoginResponse{
			Token:    token,
			ExpireAt: expireAt.Format(time.RFC3339),
			Username: admin.Username,
			Role:     auth.RoleAdmin,
		})
	}
}
