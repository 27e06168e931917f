package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-online/internal/config"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/repository"
	"github.com/stemsi/exstem-online/internal/service"
)

type userMap map[int]*model.User

func (m userMap) GetUserByID(_ context.Context, id int) (*model.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func newRouter(auth *service.AuthService, users UserLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireAuth(auth, users), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})
	r.GET("/admin", RequireAuth(auth, users), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireAuthAndAdmin(t *testing.T) {
	auth := service.NewAuthService(&config.Config{JWTSecret: "s", JWTExpiry: time.Hour})
	users := userMap{
		1: {ID: 1, Username: "root", IsAdmin: true},
		2: {ID: 2, Username: "ani"},
	}
	r := newRouter(auth, users)

	adminToken, _, err := auth.GenerateToken(1, true)
	require.NoError(t, err)
	studentToken, _, err := auth.GenerateToken(2, false)
	require.NoError(t, err)
	ghostToken, _, err := auth.GenerateToken(99, false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		code   int
	}{
		{"missing token", "/me", "", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"unknown user", "/me", "Bearer " + ghostToken, http.StatusUnauthorized},
		{"student me", "/me", "Bearer " + studentToken, http.StatusOK},
		{"student admin route", "/admin", "Bearer " + studentToken, http.StatusForbidden},
		{"admin route", "/admin", "Bearer " + adminToken, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRateLimiterRefills(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("ip"))
	assert.True(t, rl.allow("ip"))
	assert.False(t, rl.allow("ip"))
	assert.True(t, rl.allow("other"))

	now = now.Add(time.Minute)
	assert.True(t, rl.allow("ip"))

	now = now.Add(10 * time.Minute)
	rl.sweep()
	assert.Empty(t, rl.buckets)
}
