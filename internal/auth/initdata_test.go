package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"
)

// signInitData builds Mini App init data the way Telegram signs it
func signInitData(botToken string, authDate time.Time, userJSON string) string {
	values := map[string]string{
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      userJSON,
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	q := url.Values{}
	for k, v := range values {
		q.Set(k, v)
	}
	q.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return q.Encode()
}

func TestValidateInitData(t *testing.T) {
	const token = "123456:bot-token"
	user := `{"id":279058397,"first_name":"Vladislav","username":"vdkfrost","language_code":"ru"}`
	valid := signInitData(token, time.Now(), user)

	tests := []struct {
		name    string
		raw     string
		token   string
		maxAge  time.Duration
		wantErr bool
	}{
		{"valid", valid, token, time.Hour, false},
		{"wrong token", valid, "other:token", time.Hour, true},
		{"missing", "", token, time.Hour, true},
		{"not configured", valid, "", time.Hour, true},
		{"stale", signInitData(token, time.Now().Add(-2*time.Hour), user), token, time.Hour, true},
		{"no user", signInitData(token, time.Now(), `{}`), token, time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ValidateInitData(tt.raw, tt.token, tt.maxAge)
			if tt.wantErr {
				if !errors.Is(err, ErrInitData) {
					t.Fatalf("Expected ErrInitData, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateInitData() failed: %v", err)
			}
			if u.ID != 279058397 || u.Username != "vdkfrost" || u.LanguageCode != "ru" {
				t.Errorf("Unexpected user %+v", u)
			}
		})
	}
}
