package telegram

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go_domainbot/internal/bot"
	"go_domainbot/internal/httpx"
)

// SecretHeader carries the secret_token registered with setWebhook
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler feeds Telegram updates to the bot. Updates are always
// acknowledged so Telegram does not redeliver them.
func WebhookHandler(h *bot.Handler, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(SecretHeader)), []byte(secret)) != 1 {
			httpx.FailErr(c, httpx.ErrForbidden("invalid webhook secret"))
			return
		}
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid update"))
			return
		}
		h.HandleUpdate(c.Request.Context(), update)
		c.Status(http.StatusOK)
	}
}
