package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"assetgen/internal/config"
	"assetgen/internal/money"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPathsAndUsesEnvKeys(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "assetgen", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "assetgen", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if !filepath.IsAbs(cfg.Paths.AssetsDir) || filepath.Base(cfg.Paths.AssetsDir) != "assets" {
		t.Fatalf("expected absolute assets dir, got %q", cfg.Paths.AssetsDir)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("expected OpenAI key from env, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Lyria.APIKey != "gm-test" {
		t.Fatalf("expected Lyria key from GEMINI_API_KEY, got %q", cfg.Lyria.APIKey)
	}
	if cfg.BudgetCap() != money.FromFloat(5) {
		t.Fatalf("unexpected budget cap %s", cfg.BudgetCap())
	}
	if cfg.ThrottleInterval() != 13*time.Second {
		t.Fatalf("unexpected throttle interval %v", cfg.ThrottleInterval())
	}
	if cfg.ProducerTimeout() != 120*time.Second {
		t.Fatalf("unexpected producer timeout %v", cfg.ProducerTimeout())
	}
	if cfg.OpenAI.TimeoutSeconds != 120 || cfg.Lyria.TimeoutSeconds != 120 {
		t.Fatalf("expected provider timeouts to inherit producer timeout, got %d/%d", cfg.OpenAI.TimeoutSeconds, cfg.Lyria.TimeoutSeconds)
	}
	if got := cfg.PriceClasses()["1024x1024/standard"]; got != money.FromFloat(0.04) {
		t.Fatalf("unexpected standard price %s", got)
	}
}

func TestLoadGoogleKeyPreferredOverGemini(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google")
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Lyria.APIKey != "google" {
		t.Fatalf("expected GOOGLE_API_KEY to win, got %q", cfg.Lyria.APIKey)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "custom.toml")
	content := `
[paths]
assets_dir = "~/game/assets"
ledger_path = "~/game/ledger.db"

[budget]
cap = 0.10

[pricing]
default = 0.05

[pricing.classes]
"1024X1024 / Standard" = 0.04

[throttle]
interval_seconds = 0.5

[openai]
api_key = "from-file"
base_url = "http://localhost:9999/v1/"

[lyria]
model = "lyria-realtime-exp"

[ledger]
backend = "SQLite"

[logging]
format = "JSON"
level = "Debug"

[metrics]
textfile = "~/metrics/assetgen.prom"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.AssetsDir != filepath.Join(tempHome, "game", "assets") {
		t.Fatalf("unexpected assets dir %q", cfg.Paths.AssetsDir)
	}
	if cfg.BudgetCap() != money.FromFloat(0.10) {
		t.Fatalf("unexpected cap %s", cfg.BudgetCap())
	}
	classes := cfg.PriceClasses()
	if len(classes) != 1 || classes["1024x1024/standard"] != money.FromFloat(0.04) {
		t.Fatalf("expected file classes to replace defaults, got %v", classes)
	}
	if cfg.ThrottleInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected throttle %v", cfg.ThrottleInterval())
	}
	if cfg.OpenAI.APIKey != "from-file" || cfg.OpenAI.BaseURL != "http://localhost:9999/v1" {
		t.Fatalf("unexpected openai section %+v", cfg.OpenAI)
	}
	if cfg.Lyria.Model != "models/lyria-realtime-exp" {
		t.Fatalf("expected models/ prefix, got %q", cfg.Lyria.Model)
	}
	if cfg.Ledger.Backend != "sqlite" || cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased enums, got %q %q %q", cfg.Ledger.Backend, cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.Metrics.Textfile != filepath.Join(tempHome, "metrics", "assetgen.prom") {
		t.Fatalf("unexpected metrics path %q", cfg.Metrics.Textfile)
	}
}

func TestLoadProjectConfigFallback(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	t.Chdir(project)

	if err := os.WriteFile(filepath.Join(project, "assetgen.toml"), []byte("[budget]\ncap = 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "assetgen.toml" {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.BudgetCap() != money.FromFloat(1.5) {
		t.Fatalf("unexpected cap %s", cfg.BudgetCap())
	}
	if len(cfg.PriceClasses()) == 0 {
		t.Fatal("expected default price classes when file has none")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "typo.toml")
	if err := os.WriteFile(path, []byte("[budget]\ncapp = 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative cap", func(c *config.Config) { c.Budget.Cap = -1 }, "budget.cap"},
		{"negative default price", func(c *config.Config) { c.Pricing.Default = -0.01 }, "pricing.default"},
		{"negative class price", func(c *config.Config) { c.Pricing.Classes["x"] = -1 }, `pricing.classes."x"`},
		{"negative throttle", func(c *config.Config) { c.Throttle.IntervalSeconds = -1 }, "throttle.interval_seconds"},
		{"zero timeout", func(c *config.Config) { c.Producer.TimeoutSeconds = 0 }, "producer.timeout_seconds"},
		{"bad channels", func(c *config.Config) { c.Lyria.Channels = 0 }, "lyria.channels"},
		{"bad width", func(c *config.Config) { c.Lyria.SampleWidth = 5 }, "lyria.sample_width"},
		{"bad url", func(c *config.Config) { c.Lyria.URL = "https://example.com" }, "lyria.url"},
		{"bad backend", func(c *config.Config) { c.Ledger.Backend = "postgres" }, "ledger.backend"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"missing assets", func(c *config.Config) { c.Paths.AssetsDir = "" }, "paths.assets_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.PriceClasses()["1792x1024/hd"] != money.FromFloat(0.12) {
		t.Fatalf("unexpected hd price %s", cfg.PriceClasses()["1792x1024/hd"])
	}
	if cfg.ThrottleInterval() != 13*time.Second {
		t.Fatalf("unexpected throttle %v", cfg.ThrottleInterval())
	}
}

func TestNormalizeClass(t *testing.T) {
	if got := config.NormalizeClass(" 1024X1792 / HD "); got != "1024x1792/hd" {
		t.Fatalf("NormalizeClass = %q", got)
	}
}
