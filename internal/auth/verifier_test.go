package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestDevMode(t *testing.T) {
	v := NewVerifier("dev", "")
	p, err := v.Verify("t_demo:Admin")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Tenant != "t_demo" || p.Role != "admin" {
		t.Fatalf("got %+v", p)
	}
	if _, err := v.Verify("no-colon"); err == nil {
		t.Fatal("expected error for malformed dev token")
	}
}

func signHS256(t *testing.T, secret, header, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding
	h := enc.EncodeToString([]byte(header))
	p := enc.EncodeToString([]byte(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(h + "." + p))
	return h + "." + p + "." + enc.EncodeToString(mac.Sum(nil))
}

func TestHMACMode(t *testing.T) {
	v := NewVerifier("hmac", "sekret")
	tok := signHS256(t, "sekret", `{"alg":"HS256","typ":"JWT"}`, `{"tenant":"t1","role":"dispatcher"}`)
	p, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Tenant != "t1" || p.Role != "dispatcher" {
		t.Fatalf("got %+v", p)
	}

	// wrong secret
	bad := signHS256(t, "other", `{"alg":"HS256"}`, `{"tenant":"t1","role":"admin"}`)
	if _, err := v.Verify(bad); err == nil {
		t.Fatal("expected bad signature error")
	}
	// missing tenant
	noTen := signHS256(t, "sekret", `{"alg":"HS256"}`, `{"role":"admin"}`)
	if _, err := v.Verify(noTen); err == nil {
		t.Fatal("expected missing tenant error")
	}
}
