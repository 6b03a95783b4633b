package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/logging"
	"go_domainbot/internal/repository"
)

// TextCache caches resolved messages; *cache.TextCache satisfies it
type TextCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// TranslationSource looks up stored translations
type TranslationSource interface {
	Get(ctx context.Context, key, lang string) (string, error)
}

const defaultLanguage = "en"

// defaults are the English messages used when no translation is stored
var defaults = map[string]string{
	"welcome": "Welcome, %s! I register domains, host their DNS and take crypto payments.\n\n" +
		"/search <domain> - check availability and price\n" +
		"/register <domain> [ns1 ns2] - register from your balance\n" +
		"/domains - your domains\n" +
		"/ns <domain> <ns1> <ns2> | managed - change nameservers\n" +
		"/balance - wallet balance\n" +
		"/deposit <usd> <coin> - top up with crypto\n" +
		"/lang <code> - change language",
	"balance":             "Balance: $%s",
	"history_line":        "%s %s $%s (%s)",
	"usage_search":        "Usage: /search <domain>",
	"usage_register":      "Send the domain you want to register, optionally followed by two nameservers.",
	"usage_deposit":       "Usage: /deposit <usd> <coin>. Supported coins: %s",
	"usage_ns":            "Usage: /ns <domain> <ns1> <ns2> or /ns <domain> managed",
	"usage_lang":          "Usage: /lang <code>",
	"language_set":        "Language set to %s.",
	"quote":               "%s is available.\nPrice: $%s\n%s\nRegister with /register %s",
	"quote_trustee":       "Trustee service included (%s).",
	"registered":          "%s is registered. Nameservers: %s",
	"registered_partial":  "%s is registered, DNS setup is still in progress. Support has been notified.",
	"duplicate":           "%s could not be registered because it is already taken at the registry. You were not charged.",
	"no_domains":          "You have no domains yet. Try /search.",
	"domain_line":         "%s (%s) expires %s",
	"deposit_started":     "Send %s %s to:\n%s\n\nYour balance is credited with $%s after confirmation.",
	"ns_updated":          "Nameservers for %s: %s",
	"blocked":             "%s",
	"err_invalid_domain":  "That is not a valid domain name.",
	"err_unsupported_tld": "This TLD is not supported. Supported: %s",
	"err_not_available":   "Sorry, that domain is not available.",
	"err_already_ours":    "That domain is already registered with us.",
	"err_balance":         "Insufficient balance. Use /deposit to top up.",
	"err_min_deposit":     "Deposit refused: %s",
	"err_nameservers":     "At least two valid nameservers are required.",
	"err_not_found":       "Domain not found.",
	"err_requirements":    "Registration requirements not met: %s",
	"err_generic":         "Something went wrong. Please try again or contact support.",
	"unknown_command":     "Unknown command. Send /start for help.",
}

// Texts resolves message keys per language: Redis cache, then the
// translations table, then the English defaults.
type Texts struct {
	source TranslationSource
	cache  TextCache
	logger *logrus.Entry
}

// NewTexts creates a resolver; cache may be nil
func NewTexts(source TranslationSource, cache TextCache, logger *logrus.Entry) *Texts {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Texts{source: source, cache: cache, logger: logger.WithField("component", "texts")}
}

// Get formats the message key in lang with args
func (t *Texts) Get(ctx context.Context, lang, key string, args ...interface{}) string {
	format := t.lookup(ctx, lang, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func (t *Texts) lookup(ctx context.Context, lang, key string) string {
	if lang == "" {
		lang = defaultLanguage
	}
	cacheKey := lang + ":" + key
	if t.cache != nil {
		if v, ok, err := t.cache.Get(ctx, cacheKey); err == nil && ok {
			return v
		} else if err != nil {
			t.logger.WithError(err).Debug("text cache unavailable")
		}
	}

	text, err := t.source.Get(ctx, key, lang)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			t.logger.WithError(err).WithField("key", key).Warn("translation lookup failed")
		}
		if lang != defaultLanguage {
			return t.lookup(ctx, defaultLanguage, key)
		}
		if d, ok := defaults[key]; ok {
			return d
		}
		return key
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, cacheKey, text); err != nil {
			t.logger.WithError(err).Debug("failed to cache text")
		}
	}
	return text
}
