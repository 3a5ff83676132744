package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearPushEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PUSH_LISTEN_ADDR", "PUSH_HOSTNAME", "PUSH_DB_PATH", "PUSH_SERVICE_KEY", "PUSH_JWT_SECRET",
		"PUSH_JWT_ISSUER", "VAPID_PUBLIC_KEY", "VAPID_PRIVATE_KEY", "VAPID_SUBSCRIBER",
		"PUSH_DEFAULT_URL", "PUSH_SEND_TIMEOUT", "PUSH_TTL", "PUSH_MAX_PARALLEL",
	} {
		// Setenv restores the original value on cleanup, Unsetenv makes it absent
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	clearPushEnv(t)

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.StoreConfigured() || cfg.VapidConfigured() {
		t.Errorf("nothing should be configured: %+v", cfg)
	}
	if cfg.ListenAddr != ":8080" || cfg.DefaultURL != "/" || cfg.SendTimeout != 10*time.Second ||
		cfg.PushTTL != 86400 || cfg.MaxParallel != 16 || cfg.VapidSubscriber != "mailto:admin@localhost" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestConfigFromEnvFull(t *testing.T) {
	clearPushEnv(t)
	t.Setenv("PUSH_DB_PATH", filepath.Join(t.TempDir(), "push.db"))
	t.Setenv("PUSH_SERVICE_KEY", "svc")
	t.Setenv("PUSH_JWT_SECRET", "jwt")
	t.Setenv("VAPID_PUBLIC_KEY", "pub")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	t.Setenv("PUSH_SEND_TIMEOUT", "3s")
	t.Setenv("PUSH_MAX_PARALLEL", "0")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if !cfg.StoreConfigured() || !cfg.VapidConfigured() {
		t.Errorf("store and vapid should be configured: %+v", cfg)
	}
	if cfg.ServiceKey != "svc" || string(cfg.JWTSecret) != "jwt" || cfg.SendTimeout != 3*time.Second || cfg.MaxParallel != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestConfigFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"half vapid pair":   {"VAPID_PUBLIC_KEY": "pub"},
		"bad timeout":       {"PUSH_SEND_TIMEOUT": "soon"},
		"negative timeout":  {"PUSH_SEND_TIMEOUT": "-1s"},
		"bad ttl":           {"PUSH_TTL": "a day"},
		"negative parallel": {"PUSH_MAX_PARALLEL": "-2"},
		"missing db dir":    {"PUSH_DB_PATH": "/definitely/not/here/push.db"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearPushEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := ConfigFromEnv(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
