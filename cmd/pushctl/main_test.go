package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oliverisaac/pushdispatch/lib/guard"
)

func TestVapid(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"vapid"}, &out); err != nil {
		t.Fatalf("vapid: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "VAPID_PUBLIC_KEY=") || !strings.HasPrefix(lines[1], "VAPID_PRIVATE_KEY=") {
		t.Errorf("output = %q", out.String())
	}
}

func TestToken(t *testing.T) {
	t.Setenv("PUSH_JWT_SECRET", "cli-secret")
	t.Setenv("PUSH_JWT_ISSUER", "")

	var out bytes.Buffer
	if err := run([]string{"token", "-user", "u1", "-email", "u1@example.com"}, &out); err != nil {
		t.Fatalf("token: %v", err)
	}

	user, err := guard.NewJWTVerifier([]byte("cli-secret"), "").Verify(context.Background(), strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if user.ID != "u1" || user.Email != "u1@example.com" {
		t.Errorf("user = %+v", user)
	}

	if err := run([]string{"token"}, &out); err == nil {
		t.Error("expected error without -user")
	}
}

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Service-Key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success":false,"error":"invalid service credential"}`))
			return
		}
		w.Write([]byte(`{"success":true,"notification_id":"n1","sent":1,"failed":0}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run([]string{"send", "-server", srv.URL, "-key", "k", "-user", "u1", "-title", "t", "-body", "b"}, &out)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "notification n1: sent=1 failed=0" {
		t.Errorf("output = %q", got)
	}

	if err := run([]string{"send", "-server", srv.URL, "-key", "wrong", "-user", "u1", "-title", "t", "-body", "b"}, &out); err == nil {
		t.Error("expected error with wrong key")
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := run([]string{"frobnicate"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error")
	}
	if err := run(nil, &bytes.Buffer{}); err == nil {
		t.Error("expected usage error")
	}
}
