package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chemsafe-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAdminRouter(jwtManager *token.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger())
	admin := r.Group("/admin", AuthMiddleware(jwtManager), AdminAuthMiddleware())
	admin.DELETE("/cache/:kind", func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.UserID)
	})
	return r
}

func TestAdminRoutes(t *testing.T) {
	jwtManager := token.NewJWTManager("test-secret", 1)
	adminToken, err := jwtManager.GenerateToken("admin-1", token.RoleAdmin)
	require.NoError(t, err)
	userToken, err := jwtManager.GenerateToken("user-1", "USER")
	require.NoError(t, err)
	foreignToken, err := token.NewJWTManager("other-secret", 1).GenerateToken("admin-1", token.RoleAdmin)
	require.NoError(t, err)
	expiredToken, err := token.NewJWTManager("test-secret", -1).GenerateToken("admin-1", token.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "admin", header: "Bearer " + adminToken, status: http.StatusOK, body: "admin-1"},
		{name: "no header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + adminToken, status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.token", status: http.StatusUnauthorized},
		{name: "other secret", header: "Bearer " + foreignToken, status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expiredToken, status: http.StatusUnauthorized},
		{name: "not admin", header: "Bearer " + userToken, status: http.StatusForbidden},
	}

	r := newAdminRouter(jwtManager)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/admin/cache/safety", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestAdminAuthWithoutClaims(t *testing.T) {
	r := gin.New()
	r.GET("/x", AdminAuthMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestLogger(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})

	// 请求体被日志读取后仍然可以绑定
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"productName":"Acetone"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"productName":"Acetone"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestTruncate(t *testing.T) {
	short := []byte("short")
	assert.Equal(t, "short", truncate(short))

	long := []byte(strings.Repeat("a", maxLoggedBody+10))
	got := truncate(long)
	assert.True(t, strings.HasSuffix(got, "...(truncated)"))
	assert.Len(t, got, maxLoggedBody+len("...(truncated)"))
}
