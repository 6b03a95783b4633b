package v1

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"go_domainbot/api/v1/admin"
	"go_domainbot/api/v1/auth"
	dnsapi "go_domainbot/api/v1/dns"
	"go_domainbot/api/v1/domains"
	"go_domainbot/api/v1/middleware"
	"go_domainbot/api/v1/payments"
	"go_domainbot/api/v1/telegram"
	walletapi "go_domainbot/api/v1/wallet"
	"go_domainbot/internal/bot"
	"go_domainbot/internal/config"
	"go_domainbot/internal/dns"
	"go_domainbot/internal/httpx"
	"go_domainbot/internal/registration"
	"go_domainbot/internal/repository"
	"go_domainbot/internal/wallet"
)

// Deps carries everything the HTTP surface needs
type Deps struct {
	Config       *config.Config
	Store        *repository.Store
	Registration *registration.Service
	Wallet       *wallet.Service
	DNS          *dns.Service
	Bot          *bot.Handler
	Hosting      admin.HostingPanel
	Sync         admin.SyncQueue
	Gatherer     prometheus.Gatherer
	Logger       *logrus.Entry
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, d Deps) {
	cfg := d.Config

	r.GET("/health", pingHandler)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/ping", pingHandler)
		v1.POST("/auth/login", auth.LoginHandler(cfg.Admin, cfg.JWT))

		// Provider callbacks, authenticated by their own secrets
		v1.GET("/payments/blockbee", payments.NewHandler(d.Wallet, d.Registration, d.Logger).BlockBee)
		if d.Bot != nil {
			v1.POST("/telegram/webhook", telegram.WebhookHandler(d.Bot, cfg.Telegram.WebhookSecret))
		}

		// Mini App routes
		app := v1.Group("/app")
		app.Use(corsMiddleware(cfg.CORSOrigins))
		app.Use(middleware.InitDataRequired(
			cfg.Telegram.BotToken,
			time.Duration(cfg.Telegram.InitDataMaxAgeMin)*time.Minute,
			d.Store.Users,
			d.Logger,
		))
		{
			domainsHandler := domains.NewHandler(d.Registration)
			app.GET("/tlds", domainsHandler.TLDs)
			app.POST("/quote", domainsHandler.Quote)
			app.POST("/domains", domainsHandler.Register)
			app.GET("/domains", domainsHandler.List)
			app.POST("/nameservers/:name", domainsHandler.SetNameservers)
			app.POST("/orders", domainsHandler.StartOrder)
			app.GET("/orders", domainsHandler.ListOrders)
			app.POST("/orders/:id/cancel", domainsHandler.CancelOrder)

			dnsHandler := dnsapi.NewHandler(d.DNS, d.Store)
			app.GET("/domains/:id/records", dnsHandler.ListRecords)
			app.POST("/domains/:id/records", dnsHandler.CreateRecord)
			app.POST("/domains/:id/records/pull", dnsHandler.PullRecords)
			app.PUT("/records/:recordId", dnsHandler.UpdateRecord)
			app.DELETE("/records/:recordId", dnsHandler.DeleteRecord)

			walletHandler := walletapi.NewHandler(d.Wallet)
			app.GET("/wallet", walletHandler.Summary)
			app.POST("/wallet/deposits", walletHandler.Deposit)
			app.POST("/wallet/deposits/:id/cancel", walletHandler.CancelDeposit)
		}

		// Operator routes
		adminGroup := v1.Group("/admin")
		adminGroup.Use(middleware.AdminRequired())
		{
			h := admin.NewHandler(d.Store, d.Registration, d.Hosting, d.Sync)
			adminGroup.GET("/users", h.ListUsers)
			adminGroup.POST("/users/:id/admin", h.SetAdmin)
			adminGroup.GET("/domains", h.ListDomains)
			adminGroup.DELETE("/domains/:id", h.DeleteDomain)
			adminGroup.POST("/domains/:id/sync", h.SyncDomain)
			adminGroup.GET("/notifications", h.ListNotifications)
			adminGroup.POST("/notifications/:id/resolve", h.ResolveNotification)
			adminGroup.POST("/reconcile", h.Reconcile)
			adminGroup.GET("/usage", h.Usage)
			adminGroup.GET("/translations", h.ListTranslations)
			adminGroup.POST("/translations", h.UpsertTranslation)
			adminGroup.GET("/settings/:key", h.GetSetting)
			adminGroup.PUT("/settings/:key", h.PutSetting)

			hosting := adminGroup.Group("/hosting/accounts")
			hosting.GET("", h.ListAccounts)
			hosting.POST("", h.CreateAccount)
			hosting.GET("/:user", h.AccountInfo)
			hosting.POST("/:user/suspend", h.SuspendAccount)
			hosting.POST("/:user/unsuspend", h.UnsuspendAccount)
			hosting.DELETE("/:user", h.TerminateAccount)
		}
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, middleware.InitDataHeader)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}
