package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	v1 "go_domainbot/api/v1"
	"go_domainbot/api/v1/admin"
	"go_domainbot/internal/bot"
	"go_domainbot/internal/cache"
	"go_domainbot/internal/config"
	"go_domainbot/internal/db"
	"go_domainbot/internal/dns"
	"go_domainbot/internal/dns/providers/cloudflare"
	"go_domainbot/internal/hosting/whm"
	"go_domainbot/internal/logging"
	"go_domainbot/internal/metrics"
	"go_domainbot/internal/payment/blockbee"
	"go_domainbot/internal/pricing"
	"go_domainbot/internal/providerhttp"
	"go_domainbot/internal/registrar/openprovider"
	"go_domainbot/internal/registration"
	"go_domainbot/internal/repository"
	"go_domainbot/internal/tld"
	"go_domainbot/internal/trustee"
	"go_domainbot/internal/wallet"
)

const (
	callbackPath    = "/api/v1/payments/blockbee"
	claimTTL        = 7 * 24 * time.Hour
	textCacheTTL    = time.Hour
	providerTimeout = 30 * time.Second
)

// DNS calls run inline with user-facing registration, so Cloudflare keeps
// its own shorter deadline.
var providerTimeouts = map[string]time.Duration{
	"cloudflare": cloudflare.RequestTimeout,
	"blockbee":   providerTimeout,
	"whm":        providerTimeout,
}

func main() {
	iniPath := flag.String("config", "", "optional INI config file; env vars override it")
	flag.Parse()

	// 1. Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *iniPath != "" {
		cfg, err = config.LoadFromINI(*iniPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	root := logging.New(cfg.Log.Level, cfg.Log.Format)
	log := logging.Component(root, "main")
	log.Info("configuration loaded")

	if err := run(cfg, root, log); err != nil {
		log.WithError(err).Fatal("exited with error")
	}
	log.Info("stopped")
}

func run(cfg *config.Config, root *logrus.Logger, log *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database
	gdb, err := db.Open(cfg.DB.Driver, cfg.DB.DSN, cfg.DB.MaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	if cfg.Migrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		log.Info("migrations applied")
	}
	store := repository.NewStore(gdb)

	// 3. Redis
	rdb, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()
	claims := cache.NewOnce(rdb, "domainbot:claim:", claimTTL)
	texts := cache.NewTextCache(rdb, "domainbot:text:", textCacheTTL)

	// 4. Metrics and provider clients
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	inst := &providerhttp.Instrumentation{
		Metrics:  m,
		Recorder: store.Usage,
		Logger:   logging.Component(root, "providerhttp"),
	}

	registrar := openprovider.NewClient(openprovider.Config{
		BaseURL:       cfg.OpenProvider.BaseURL,
		Username:      cfg.OpenProvider.Username,
		Password:      cfg.OpenProvider.Password,
		FallbackEmail: cfg.OpenProvider.FallbackEmail,
		HTTPClient:    inst.Client("openprovider", 0),
		Logger:        logging.Component(root, "openprovider"),
	})
	cf := cloudflare.NewCloudflareProvider(cloudflare.Config{
		BaseURL:      cfg.Cloudflare.BaseURL,
		APIToken:     cfg.Cloudflare.APIToken,
		Email:        cfg.Cloudflare.Email,
		GlobalAPIKey: cfg.Cloudflare.GlobalAPIKey,
		HTTPClient:   inst.Client("cloudflare", providerTimeouts["cloudflare"]),
		Logger:       logging.Component(root, "cloudflare"),
	})
	gateway := blockbee.NewClient(blockbee.Config{
		BaseURL:    cfg.BlockBee.BaseURL,
		APIKey:     cfg.BlockBee.APIKey,
		HTTPClient: inst.Client("blockbee", providerTimeouts["blockbee"]),
		Logger:     logging.Component(root, "blockbee"),
	})
	hosting := whm.NewClient(whm.Config{
		BaseURL:     cfg.WHM.BaseURL,
		Username:    cfg.WHM.Username,
		APIToken:    cfg.WHM.APIToken,
		DefaultPlan: cfg.WHM.DefaultPlan,
		HTTPClient:  inst.Client("whm", providerTimeouts["whm"]),
		Logger:      logging.Component(root, "whm"),
	})

	// 5. Services
	walletSvc := wallet.NewService(store, gateway, claims, m, wallet.Config{
		MinDepositUSD:   cfg.Wallet.MinDepositUSD,
		CallbackBaseURL: cfg.BlockBee.CallbackBaseURL,
		CallbackPath:    callbackPath,
	}, logging.Component(root, "wallet"))
	dnsSvc := dns.NewService(cf, store, logging.Component(root, "dns"))
	regSvc := registration.NewService(registration.Deps{
		Store:         store,
		Registrar:     registrar,
		Zones:         cf,
		Gateway:       gateway,
		Wallet:        walletSvc,
		Claimer:       claims,
		TLDs:          tld.NewTable(logging.Component(root, "tld")),
		Trustee:       trustee.NewRule(),
		Markup:        pricing.NewMarkup(cfg.Pricing.Multiplier),
		Metrics:       m,
		Logger:        logging.Component(root, "registration"),
		FallbackEmail: cfg.OpenProvider.FallbackEmail,
	})
	worker := dns.NewSyncWorker(dnsSvc, store.Domains, dns.WorkerConfig{
		Enabled:     cfg.DNSSync.Enabled,
		IntervalSec: cfg.DNSSync.IntervalSec,
	}, logging.Component(root, "dns_sync"))

	// 6. Telegram bot; without a token only the HTTP API runs
	var handler *bot.Handler
	if cfg.Telegram.BotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			return err
		}
		log.WithField("bot", api.Self.UserName).Info("telegram bot authorized")
		handler = bot.NewHandler(api, regSvc, walletSvc, store,
			bot.NewTexts(store.Translations, texts, logging.Component(root, "texts")),
			cfg.Telegram.AdminChatIDs, logging.Component(root, "bot"))
		regSvc.SetAlerter(handler)
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	// manual sync requests only make sense while the worker runs
	var syncQueue admin.SyncQueue
	if cfg.DNSSync.Enabled {
		syncQueue = worker
	}

	// 7. HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	v1.SetupRouter(r, v1.Deps{
		Config:       cfg,
		Store:        store,
		Registration: regSvc,
		Wallet:       walletSvc,
		DNS:          dnsSvc,
		Bot:          handler,
		Hosting:      hosting,
		Sync:         syncQueue,
		Gatherer:     reg,
		Logger:       logging.Component(root, "api"),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
