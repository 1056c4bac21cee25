//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "bot:\n  token: abc\n"), true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Quota.FreeLimit != 2 {
		t.Errorf("free limit = %d", cfg.Quota.FreeLimit)
	}
	if cfg.Store.Driver != "memory" || cfg.Store.Sessions != "memory" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Payment.Gateway != "simulated" || cfg.Payment.Timeout != 10*time.Second {
		t.Errorf("payment = %+v", cfg.Payment)
	}
	if cfg.Content.Provider != "static" {
		t.Errorf("content provider = %q", cfg.Content.Provider)
	}
	if cfg.Dispatch.PerSecond != 25 || cfg.Dispatch.Hour != 0 {
		t.Errorf("dispatch = %+v", cfg.Dispatch)
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag not carried")
	}
	if cfg.Location().String() != "UTC" {
		t.Errorf("location = %s", cfg.Location())
	}
}

func TestLoadConfig_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("ADMIN_JWT_SECRET", "jwt-env")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := LoadConfig(writeConfig(t, "bot:\n  token: from-file\nadmin:\n  jwt_secret: file\n"), false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Token != "from-env" || cfg.Admin.JWTSecret != "jwt-env" || cfg.Content.OpenAIKey != "sk-env" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "only-env")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Token != "only-env" {
		t.Fatalf("token = %q", cfg.Bot.Token)
	}
}

func TestLoadConfig_BrokenYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "bot: [unclosed"), false); err == nil {
		t.Fatal("broken yaml accepted")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.Bot.Token = "t"
		applyDefaults(c)
		return c
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"no token", func(c *Config) { c.Bot.Token = "" }, "bot.token"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, "database_url"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "unknown store.driver"},
		{"redis sessions without url", func(c *Config) { c.Store.Sessions = "redis" }, "redis.url"},
		{"rate limit without redis", func(c *Config) { c.Bot.RateLimit = 5 }, "redis.url"},
		{"callback without secret", func(c *Config) {
			c.Payment.Gateway = "callback"
			c.Redis.URL = "localhost:6379"
		}, "callback_secret"},
		{"bad timezone", func(c *Config) { c.Quota.Timezone = "Mars/Olympus" }, "quota.timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
