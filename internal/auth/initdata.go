package auth

import (
	"errors"
	"fmt"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// ErrInitData is returned for missing, forged or stale Mini App init data
var ErrInitData = errors.New("invalid init data")

// MiniAppUser is the Telegram user a Mini App request was signed for
type MiniAppUser struct {
	ID           int64
	Username     string
	FirstName    string
	LanguageCode string
}

// ValidateInitData checks the init data signature against the bot token and
// its age against maxAge (zero disables the age check).
func ValidateInitData(raw, botToken string, maxAge time.Duration) (*MiniAppUser, error) {
	if botToken == "" {
		return nil, fmt.Errorf("%w: bot token not configured", ErrInitData)
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: missing", ErrInitData)
	}
	if err := initdata.Validate(raw, botToken, maxAge); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitData, err)
	}
	parsed, err := initdata.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitData, err)
	}
	if parsed.User.ID == 0 {
		return nil, fmt.Errorf("%w: no user", ErrInitData)
	}
	return &MiniAppUser{
		ID:           parsed.User.ID,
		Username:     parsed.User.Username,
		FirstName:    parsed.User.FirstName,
		LanguageCode: parsed.User.LanguageCode,
	}, nil
}
