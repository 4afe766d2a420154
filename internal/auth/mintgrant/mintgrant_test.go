package mintgrant

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/Theras-Labs/theras-boost-protocol/internal/platform/errors"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(EnvGrantIssuer, "")
	t.Setenv(EnvGrantAudience, "")
	t.Setenv(EnvGrantPublicKey, "")

	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected error when env vars are missing")
	}

	pubKey, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	t.Setenv(EnvGrantIssuer, "issuer")
	t.Setenv(EnvGrantAudience, "boost-protocol")
	t.Setenv(EnvGrantPublicKey, base64.RawStdEncoding.EncodeToString(pubKey))

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load grant config: %v", err)
	}
	if cfg.Issuer != "issuer" || cfg.Audience != "boost-protocol" {
		t.Fatal("expected issuer and audience to be loaded")
	}
	if len(cfg.Key) != ed25519.PublicKeySize {
		t.Fatalf("expected public key size %d", ed25519.PublicKeySize)
	}
}

func TestValidateSuccess(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	grant := signGrant(t, priv, map[string]any{
		"alg": "EdDSA",
		"typ": "JWT",
	}, map[string]any{
		"iss": "issuer",
		"aud": []string{"boost-protocol", "secondary"},
		"sub": "caller-1",
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Add(-time.Minute).Unix(),
		"jti": "jti-1",
	})

	cfg := Config{Issuer: "issuer", Audience: "boost-protocol", Key: pub, Now: func() time.Time { return now }}
	claims, err := Validate(grant, cfg)
	if err != nil {
		t.Fatalf("validate grant: %v", err)
	}
	if claims.Subject != "caller-1" {
		t.Fatalf("Subject = %q, want %q", claims.Subject, "caller-1")
	}
	if claims.Issuer != "issuer" {
		t.Fatalf("Issuer = %q, want %q", claims.Issuer, "issuer")
	}
	if !claims.ExpiresAt.Equal(time.Unix(now.Add(time.Hour).Unix(), 0).UTC()) {
		t.Fatal("expected expires at to match exp")
	}
}

func TestValidateExpired(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	grant := signGrant(t, priv, map[string]any{"alg": "EdDSA"}, map[string]any{
		"iss": "issuer",
		"aud": "boost-protocol",
		"sub": "caller-1",
		"exp": now.Add(-time.Minute).Unix(),
		"jti": "jti-1",
	})

	cfg := Config{Issuer: "issuer", Audience: "boost-protocol", Key: pub, Now: func() time.Time { return now }}
	_, err = Validate(grant, cfg)
	if apperrors.CodeOf(err) != apperrors.CodeGrantExpired {
		t.Fatalf("Validate() error = %v, want CodeGrantExpired", err)
	}
}

func TestValidateIssuerMismatch(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	grant := signGrant(t, priv, map[string]any{"alg": "EdDSA"}, map[string]any{
		"iss": "other-issuer",
		"aud": "boost-protocol",
		"sub": "caller-1",
		"exp": now.Add(time.Hour).Unix(),
		"jti": "jti-1",
	})

	cfg := Config{Issuer: "issuer", Audience: "boost-protocol", Key: pub, Now: func() time.Time { return now }}
	_, err = Validate(grant, cfg)
	if apperrors.CodeOf(err) != apperrors.CodeGrantMismatch {
		t.Fatalf("Validate() error = %v, want CodeGrantMismatch", err)
	}
}

func TestValidateMissingSubject(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	grant := signGrant(t, priv, map[string]any{"alg": "EdDSA"}, map[string]any{
		"iss": "issuer",
		"aud": "boost-protocol",
		"exp": now.Add(time.Hour).Unix(),
		"jti": "jti-1",
	})

	cfg := Config{Issuer: "issuer", Audience: "boost-protocol", Key: pub, Now: func() time.Time { return now }}
	_, err = Validate(grant, cfg)
	if err == nil || !strings.Contains(err.Error(), "subject") {
		t.Fatalf("expected subject error, got %v", err)
	}
}

func TestValidateWrongKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	grant := signGrant(t, otherPriv, map[string]any{"alg": "EdDSA"}, map[string]any{
		"iss": "issuer",
		"aud": "boost-protocol",
		"sub": "caller-1",
		"exp": now.Add(time.Hour).Unix(),
		"jti": "jti-1",
	})

	cfg := Config{Issuer: "issuer", Audience: "boost-protocol", Key: pub, Now: func() time.Time { return now }}
	_, err = Validate(grant, cfg)
	if apperrors.CodeOf(err) != apperrors.CodeGrantInvalid {
		t.Fatalf("Validate() error = %v, want CodeGrantInvalid", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	cfg := Config{Issuer: "issuer", Audience: "boost-protocol", Key: pub, Now: time.Now}
	if _, err := Validate("invalid.token.parts", cfg); err == nil {
		t.Fatal("expected error for invalid grant")
	}

	var appErr *apperrors.Error
	_, err = Validate("", cfg)
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeGrantInvalid {
		t.Fatalf("Validate(\"\") error = %v, want CodeGrantInvalid", err)
	}
}

func signGrant(t *testing.T, privateKey ed25519.PrivateKey, header, payload map[string]any) string {
	t.Helper()

	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	encodedHeader := base64.RawURLEncoding.EncodeToString(headerJSON)
	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadJSON)
	signingInput := encodedHeader + "." + encodedPayload
	signature := ed25519.Sign(privateKey, []byte(signingInput))
	encodedSig := base64.RawURLEncoding.EncodeToString(signature)
	return signingInput + "." + encodedSig
}
