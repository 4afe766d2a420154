package grantkey

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"
)

func TestRunWritesKeypair(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	if err := Run(&out, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output lines = %d, want 2", len(lines))
	}

	pubValue, ok := strings.CutPrefix(lines[0], "THERAS_BOOST_GRANT_PUBLIC_KEY=")
	if !ok {
		t.Fatalf("first line = %q, want public key assignment", lines[0])
	}
	pub, err := base64.RawStdEncoding.DecodeString(pubValue)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		t.Fatalf("public key size = %d, want %d", len(pub), ed25519.PublicKeySize)
	}

	privValue, ok := strings.CutPrefix(lines[1], "THERAS_BOOST_GRANT_PRIVATE_KEY=")
	if !ok {
		t.Fatalf("second line = %q, want private key assignment", lines[1])
	}
	priv, err := base64.RawStdEncoding.DecodeString(privValue)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(priv) != ed25519.PrivateKeySize {
		t.Fatalf("private key size = %d, want %d", len(priv), ed25519.PrivateKeySize)
	}
}

func TestRunRequiresOutput(t *testing.T) {
	t.Parallel()

	if err := Run(nil, nil); err == nil {
		t.Fatal("Run() error = nil, want output error")
	}
}
