package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go_domainbot/internal/auth"
	"go_domainbot/internal/httpx"
	"go_domainbot/internal/logging"
	"go_domainbot/internal/repository"
)

// Context keys set by the auth middlewares
const (
	CtxUsername   = "username"
	CtxRole       = "role"
	CtxTelegramID = "telegram_id"
	CtxUser       = "user"
)

// InitDataHeader carries raw Mini App init data
const InitDataHeader = "X-Telegram-Init-Data"

// AdminRequired validates the admin JWT bearer token
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.FailErr(c, httpx.ErrUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			if auth.IsExpired(err) {
				httpx.FailErr(c, httpx.ErrTokenExpired("token expired"))
			} else {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			}
			c.Abort()
			return
		}
		if claims.Role != auth.RoleAdmin {
			httpx.FailErr(c, httpx.ErrForbidden(""))
			c.Abort()
			return
		}

		c.Set(CtxUsername, claims.Username)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// InitDataRequired authenticates Mini App requests by their signed init
// data and loads (or creates) the bot user they belong to.
func InitDataRequired(botToken string, maxAge time.Duration, users *repository.UserRepo, logger *logrus.Entry) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Discard()
	}
	return func(c *gin.Context) {
		raw := c.GetHeader(InitDataHeader)
		if raw == "" {
			raw = c.Query("init_data")
		}

		tgUser, err := auth.ValidateInitData(raw, botToken, maxAge)
		if err != nil {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid init data"))
			c.Abort()
			return
		}

		user, err := users.GetOrCreate(c.Request.Context(), tgUser.ID, tgUser.Username, tgUser.FirstName)
		if err != nil {
			logger.WithError(err).WithField("telegram_id", tgUser.ID).Error("failed to load mini app user")
			httpx.FailErr(c, httpx.ErrDatabaseError("", err))
			c.Abort()
			return
		}

		c.Set(CtxTelegramID, user.TelegramID)
		c.Set(CtxUser, user)
		c.Next()
	}
}

// TelegramID returns the authenticated Mini App user id
func TelegramID(c *gin.Context) int64 {
	return c.GetInt64(CtxTelegramID)
}
