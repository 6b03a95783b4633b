package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	InitJWT("test-secret-key")

	expireAt := time.Now().Add(24 * time.Hour)
	token, err := GenerateToken("operator", RoleAdmin, expireAt, "go_domainbot")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	if token == "" {
		t.Error("Expected non-empty token")
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}
	if claims.Username != "operator" {
		t.Errorf("Expected username operator, got %s", claims.Username)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("Expected role %s, got %s", RoleAdmin, claims.Role)
	}
	if claims.Issuer != "go_domainbot" {
		t.Errorf("Expected issuer go_domainbot, got %s", claims.Issuer)
	}
}

func TestParseToken_Failures(t *testing.T) {
	tests := []struct {
		name        string
		signWith    string
		parseWith   string
		expireAt    time.Time
		wantExpired bool
	}{
		{"expired", "k", "k", time.Now().Add(-time.Hour), true},
		{"wrong secret", "secret-1", "secret-2", time.Now().Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitJWT(tt.signWith)
			token, err := GenerateToken("operator", RoleAdmin, tt.expireAt, "go_domainbot")
			if err != nil {
				t.Fatalf("GenerateToken() failed: %v", err)
			}

			InitJWT(tt.parseWith)
			_, err = ParseToken(token)
			if err == nil {
				t.Fatal("ParseToken() should fail")
			}
			if IsExpired(err) != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v (err=%v)", IsExpired(err), tt.wantExpired, err)
			}
		})
	}

	InitJWT("test-secret-key")
	if _, err := ParseToken("invalid.token.string"); err == nil {
		t.Error("ParseToken() should fail for invalid token")
	}
}

func TestGenerateToken_UninitializedSecret(t *testing.T) {
	jwtSecret = nil

	_, err := GenerateToken("operator", RoleAdmin, time.Now().Add(24*time.Hour), "go_domainbot")
	if err == nil {
		t.Error("GenerateToken() should fail when secret is not initialized")
	}

	InitJWT("test-secret-key")
}
