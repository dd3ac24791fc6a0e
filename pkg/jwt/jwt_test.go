package jwt

import (
	"errors"
	"testing"
	"time"

	"uctenky/backend/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
}

var testSubject = Subject{UserID: "user-1", Role: "head", SectionID: "sec-1"}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken(testSubject)
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	claims, err := m.ParseTyped(token, TypeAccess)
	if err != nil {
		t.Fatalf("ParseTyped 失败: %v", err)
	}

	if claims.Subject() != testSubject {
		t.Errorf("身份不一致: %+v", claims.Subject())
	}
	if claims.Issuer != "uctenky" {
		t.Errorf("期望 Issuer=uctenky，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}
}

func TestIssue_Pair(t *testing.T) {
	m := newTestManager()

	pair, err := m.Issue(testSubject, false)
	if err != nil {
		t.Fatalf("Issue 失败: %v", err)
	}
	if pair.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", pair.ExpiresIn)
	}

	claims, err := m.ParseTyped(pair.RefreshToken, TypeRefresh)
	if err != nil {
		t.Fatalf("refresh token 解析失败: %v", err)
	}
	if claims.RememberMe {
		t.Error("期望 RememberMe=false")
	}

	// 检查过期时间约为 24h
	ttl := claims.Remaining(time.Now())
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Errorf("默认 RefreshToken TTL 期望约24h，实际=%v", ttl)
	}
}

func TestGenerateRefreshToken_RememberMe(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken(testSubject, true)
	if err != nil {
		t.Fatalf("GenerateRefreshToken(RememberMe) 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}
	if !claims.RememberMe {
		t.Error("期望 RememberMe=true")
	}

	ttl := claims.Remaining(time.Now())
	if ttl < 6*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("RememberMe RefreshToken TTL 期望约7天，实际=%v", ttl)
	}
}

func TestParseTyped_WrongType(t *testing.T) {
	m := newTestManager()

	token, _ := m.GenerateRefreshToken(testSubject, false)
	if _, err := m.ParseTyped(token, TypeAccess); !errors.Is(err, ErrTokenWrongType) {
		t.Errorf("refresh token 不应作为 access token 使用，实际: %v", err)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	if _, err := m.ParseToken("invalid.token.string"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _ := m1.GenerateAccessToken(testSubject)
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:              "test-secret",
		AccessTokenTTL:         1 * time.Millisecond,
		RefreshTokenTTLDefault: 1 * time.Millisecond,
	})

	token, _ := m.GenerateAccessToken(testSubject)
	time.Sleep(10 * time.Millisecond)

	_, err := m.ParseToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestClaims_RemainingExpired(t *testing.T) {
	c := &Claims{}
	if c.Remaining(time.Now()) != 0 {
		t.Error("无过期时间时应返回 0")
	}
}
