package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBudget()
	c.normalizePricing()
	c.normalizeOpenAI()
	c.normalizeLyria()
	c.normalizeLedger()
	c.normalizeLogging()
	return c.normalizeMetrics()
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.AssetsDir, err = expandPath(strings.TrimSpace(c.Paths.AssetsDir)); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	if c.Paths.CatalogDir, err = expandPath(strings.TrimSpace(c.Paths.CatalogDir)); err != nil {
		return fmt.Errorf("paths.catalog_dir: %w", err)
	}
	if c.Paths.LedgerPath, err = expandPath(strings.TrimSpace(c.Paths.LedgerPath)); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBudget() {
	c.Budget.Currency = strings.ToUpper(strings.TrimSpace(c.Budget.Currency))
	if c.Budget.Currency == "" {
		c.Budget.Currency = defaultCurrency
	}
}

func (c *Config) normalizePricing() {
	if len(c.Pricing.Classes) == 0 {
		return
	}
	normalized := make(map[string]float64, len(c.Pricing.Classes))
	for class, price := range c.Pricing.Classes {
		normalized[NormalizeClass(class)] = price
	}
	c.Pricing.Classes = normalized
}

// NormalizeClass canonicalises a price class key ("1024X1024 / HD" becomes
// "1024x1024/hd").
func NormalizeClass(class string) string {
	parts := strings.Split(class, "/")
	for i, part := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(part))
	}
	return strings.Join(parts, "/")
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	if c.OpenAI.TimeoutSeconds == 0 {
		c.OpenAI.TimeoutSeconds = c.Producer.TimeoutSeconds
	}
}

func (c *Config) normalizeLyria() {
	c.Lyria.APIKey = strings.TrimSpace(c.Lyria.APIKey)
	if c.Lyria.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.Lyria.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Lyria.APIKey = strings.TrimSpace(value)
		}
	}
	c.Lyria.URL = strings.TrimSpace(c.Lyria.URL)
	if c.Lyria.URL == "" {
		c.Lyria.URL = defaultLyriaURL
	}
	c.Lyria.Model = strings.TrimSpace(c.Lyria.Model)
	if c.Lyria.Model == "" {
		c.Lyria.Model = defaultLyriaModel
	}
	if !strings.HasPrefix(c.Lyria.Model, "models/") {
		c.Lyria.Model = "models/" + c.Lyria.Model
	}
	if c.Lyria.TimeoutSeconds == 0 {
		c.Lyria.TimeoutSeconds = c.Producer.TimeoutSeconds
	}
}

func (c *Config) normalizeLedger() {
	c.Ledger.Backend = strings.ToLower(strings.TrimSpace(c.Ledger.Backend))
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMetrics() error {
	path := strings.TrimSpace(c.Metrics.Textfile)
	if path == "" {
		c.Metrics.Textfile = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	c.Metrics.Textfile = expanded
	return nil
}
