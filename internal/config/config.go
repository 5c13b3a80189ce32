package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"assetgen/internal/money"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	AssetsDir  string `toml:"assets_dir"`
	CatalogDir string `toml:"catalog_dir"`
	LedgerPath string `toml:"ledger_path"`
	LogDir     string `toml:"log_dir"`
}

// Budget holds the spend cap applied to the ledger.
type Budget struct {
	Cap      float64 `toml:"cap"`
	Currency string  `toml:"currency"`
}

// Pricing maps size/quality classes to per-job cost. Unknown classes fall back
// to Default.
type Pricing struct {
	Default float64            `toml:"default"`
	Classes map[string]float64 `toml:"classes"`
}

// Throttle is the fixed pause after every real producer call.
type Throttle struct {
	IntervalSeconds float64 `toml:"interval_seconds"`
}

// Producer holds settings shared by every producer kind.
type Producer struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// OpenAI configures the image producer.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Lyria configures the streaming music producer.
type Lyria struct {
	APIKey         string `toml:"api_key"`
	URL            string `toml:"url"`
	Model          string `toml:"model"`
	SampleRate     int    `toml:"sample_rate"`
	Channels       int    `toml:"channels"`
	SampleWidth    int    `toml:"sample_width"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Ledger selects the persistence backend.
type Ledger struct {
	Backend string `toml:"backend"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics configures the optional Prometheus textfile export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for assetgen.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Budget   Budget   `toml:"budget"`
	Pricing  Pricing  `toml:"pricing"`
	Throttle Throttle `toml:"throttle"`
	Producer Producer `toml:"producer"`
	OpenAI   OpenAI   `toml:"openai"`
	Lyria    Lyria    `toml:"lyria"`
	Ledger   Ledger   `toml:"ledger"`
	Logging  Logging  `toml:"logging"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigRelative)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// A [pricing.classes] table in the file replaces the defaults wholesale
		// so removed classes do not linger.
		cfg.Pricing.Classes = nil
		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if cfg.Pricing.Classes == nil {
			cfg.Pricing.Classes = defaultPriceClasses()
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigRelative)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectConfigFilename)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the asset tree, the ledger's parent directory, and
// the log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.AssetsDir, filepath.Dir(c.Paths.LedgerPath), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// BudgetCap returns the configured cap as an exact amount.
func (c *Config) BudgetCap() money.Amount {
	return money.FromFloat(c.Budget.Cap)
}

// ThrottleInterval returns the pause applied after each producer call.
func (c *Config) ThrottleInterval() time.Duration {
	return time.Duration(c.Throttle.IntervalSeconds * float64(time.Second))
}

// ProducerTimeout bounds a single producer call.
func (c *Config) ProducerTimeout() time.Duration {
	return time.Duration(c.Producer.TimeoutSeconds) * time.Second
}

// PriceDefault returns the fallback price for unknown classes.
func (c *Config) PriceDefault() money.Amount {
	return money.FromFloat(c.Pricing.Default)
}

// PriceClasses returns the class price table as exact amounts.
func (c *Config) PriceClasses() map[string]money.Amount {
	out := make(map[string]money.Amount, len(c.Pricing.Classes))
	for class, price := range c.Pricing.Classes {
		out[class] = money.FromFloat(price)
	}
	return out
}

// PriceClassNames lists configured classes in sorted order.
func (c *Config) PriceClassNames() []string {
	names := make([]string, 0, len(c.Pricing.Classes))
	for class := range c.Pricing.Classes {
		names = append(names, class)
	}
	sort.Strings(names)
	return names
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
