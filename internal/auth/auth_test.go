package auth

import (
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{JWTSecret: "test-secret", TokenTTL: 7 * 24 * time.Hour}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "user-123")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-123")
	}
	if claims.ExpiresAt == nil {
		t.Fatal("ExpiresAt missing")
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 7*24*time.Hour-time.Minute || ttl > 7*24*time.Hour {
		t.Errorf("token TTL = %v, want ~7 days", ttl)
	}
}

// 格式错误、签名无效、过期：全部拒绝，调用方统一回应 unauthorized
func TestParseTokenRejects(t *testing.T) {
	cfg := testConfig()

	valid, err := GenerateToken(cfg, "user-123")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	expired, err := GenerateToken(Config{JWTSecret: cfg.JWTSecret, TokenTTL: -time.Hour}, "user-123")
	if err != nil {
		t.Fatalf("GenerateToken expired: %v", err)
	}

	otherKey, err := GenerateToken(Config{JWTSecret: "other-secret", TokenTTL: time.Hour}, "user-123")
	if err != nil {
		t.Fatalf("GenerateToken other key: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not-a-jwt"},
		{"empty", ""},
		{"truncated", valid[:len(valid)/2]},
		{"wrong signature", otherKey},
		{"expired", expired},
		{"tampered payload", tamper(valid)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(cfg, tt.token); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// tamper 篡改 JWT 的 payload 段
func tamper(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return token
	}
	parts[1] = "eyJzdWIiOiJhdHRhY2tlciJ9"
	return strings.Join(parts, ".")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestGenerateResetCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateResetCode()
		if err != nil {
			t.Fatalf("GenerateResetCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q length = %d, want 6", code, len(code))
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
		seen[code] = true
	}
	// 50 次全部相同几乎不可能
	if len(seen) == 1 {
		t.Error("reset codes are not random")
	}
}
