package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uctenky/backend/config"
	"uctenky/backend/pkg/jwt"
	"uctenky/backend/pkg/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── 测试辅助 ──

type stubBlacklist struct {
	revoked map[string]bool
	err     error
}

func (s *stubBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-at-least-32-bytes-long!!",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 30 * 24 * time.Hour,
	})
}

func authEngine(mgr *jwt.Manager, bl Blacklist) *gin.Engine {
	r := gin.New()
	r.GET("/me", JWTAuth(mgr, bl, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id")+"|"+c.GetString("role")+"|"+c.GetString("section_id"))
	})
	return r
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth ──

func TestJWTAuth_InjectsIdentity(t *testing.T) {
	mgr := newTestJWT()
	pair, err := mgr.Issue(jwt.Subject{UserID: "u-1", Role: "head", SectionID: "s-1"}, false)
	if err != nil {
		t.Fatalf("签发 token 失败: %v", err)
	}

	w := doGet(authEngine(mgr, nil), "/me", pair.AccessToken)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "u-1|head|s-1" {
		t.Errorf("unexpected identity: %s", w.Body.String())
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	mgr := newTestJWT()
	pair, _ := mgr.Issue(jwt.Subject{UserID: "u-1", Role: "member"}, false)

	tests := []struct {
		name  string
		token string
	}{
		{"缺少认证头", ""},
		{"伪造 token", "not-a-jwt"},
		{"refresh token 不能当 access 使用", pair.RefreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(authEngine(mgr, nil), "/me", tt.token)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestJWTAuth_Blacklist(t *testing.T) {
	mgr := newTestJWT()
	pair, _ := mgr.Issue(jwt.Subject{UserID: "u-1", Role: "member"}, false)
	claims, err := mgr.ParseTyped(pair.AccessToken, jwt.TypeAccess)
	if err != nil {
		t.Fatalf("解析 token 失败: %v", err)
	}

	revoked := &stubBlacklist{revoked: map[string]bool{claims.ID: true}}
	if w := doGet(authEngine(mgr, revoked), "/me", pair.AccessToken); w.Code != http.StatusUnauthorized {
		t.Errorf("已吊销的 token 应被拒绝, got %d", w.Code)
	}

	// Redis 故障时降级放行
	broken := &stubBlacklist{err: errors.New("connection refused")}
	if w := doGet(authEngine(mgr, broken), "/me", pair.AccessToken); w.Code != http.StatusOK {
		t.Errorf("黑名单不可用时应放行, got %d", w.Code)
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{"admin", http.StatusOK},
		{"head", http.StatusOK},
		{"member", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			r := gin.New()
			r.GET("/review", func(c *gin.Context) {
				if tt.role != "" {
					c.Set("role", tt.role)
				}
			}, RoleAuth("admin", "head"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			if w := doGet(r, "/review", ""); w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

// ── RateLimit ──

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	limiter := ratelimit.NewMemory(ratelimit.Rule{Limit: 2, Window: time.Minute}, 0)
	defer limiter.Close()

	r := gin.New()
	r.POST("/login", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/login", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence: %v", codes)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit_FailOpen(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(failingLimiter{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/login", nil))
	if w.Code != http.StatusOK {
		t.Errorf("限流器出错时应放行, got %d", w.Code)
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Error(err)
			return
		}
		c.String(http.StatusOK, string(body))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/echo", strings.NewReader("short")))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/echo", strings.NewReader(strings.Repeat("x", 64))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

// ── RequestID / SecurityHeaders ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("应沿用合法的外部 Request-ID, got %q", w.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "bad id\twith spaces")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got == "bad id\twith spaces" || len(got) != 36 {
		t.Errorf("非法 Request-ID 应被替换为 UUID, got %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("缺少 X-Content-Type-Options")
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), "default-src 'none'") {
		t.Errorf("unexpected CSP: %s", w.Header().Get("Content-Security-Policy"))
	}
}
