package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_domainbot/internal/auth"
	"go_domainbot/internal/repository"
	dbtest "go_domainbot/internal/testutil"
)

func TestAdminRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth.InitJWT("middleware-secret")

	admin, err := auth.GenerateToken("root", auth.RoleAdmin, time.Now().Add(time.Hour), "test")
	require.NoError(t, err)
	viewer, err := auth.GenerateToken("bob", "viewer", time.Now().Add(time.Hour), "test")
	require.NoError(t, err)
	expired, err := auth.GenerateToken("root", auth.RoleAdmin, time.Now().Add(-time.Minute), "test")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/x", AdminRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUsername))
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + admin, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"not admin", "Bearer " + viewer, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "root", rec.Body.String())
			}
		})
	}
}

func TestInitDataRequired_Rejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := repository.NewStore(dbtest.NewDB(t))

	r := gin.New()
	r.GET("/me", InitDataRequired("123:abc", time.Hour, store.Users, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, raw := range []string{"", "user=%7B%22id%22%3A1%7D&hash=deadbeef&auth_date=1"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(InitDataHeader, raw)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, raw)
	}
}
