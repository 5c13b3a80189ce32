package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable. Provider credentials are not
// checked here; they are required only for the producer kinds a catalog uses.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBudget(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateLyria(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.AssetsDir == "" {
		return errors.New("paths.assets_dir must be set")
	}
	if c.Paths.LedgerPath == "" {
		return errors.New("paths.ledger_path must be set")
	}
	return nil
}

func (c *Config) validateBudget() error {
	if c.Budget.Cap < 0 {
		return errors.New("budget.cap must be non-negative")
	}
	return nil
}

func (c *Config) validatePricing() error {
	if c.Pricing.Default < 0 {
		return errors.New("pricing.default must be non-negative")
	}
	classes := make([]string, 0, len(c.Pricing.Classes))
	for class := range c.Pricing.Classes {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		if strings.TrimSpace(class) == "" {
			return errors.New("pricing.classes keys must not be empty")
		}
		if c.Pricing.Classes[class] < 0 {
			return fmt.Errorf("pricing.classes.%q must be non-negative", class)
		}
	}
	return nil
}

func (c *Config) validateTiming() error {
	if c.Throttle.IntervalSeconds < 0 {
		return errors.New("throttle.interval_seconds must be non-negative")
	}
	if c.Producer.TimeoutSeconds <= 0 {
		return errors.New("producer.timeout_seconds must be positive")
	}
	if c.OpenAI.TimeoutSeconds < 0 {
		return errors.New("openai.timeout_seconds must be non-negative")
	}
	if c.Lyria.TimeoutSeconds < 0 {
		return errors.New("lyria.timeout_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateLyria() error {
	if c.Lyria.SampleRate <= 0 {
		return errors.New("lyria.sample_rate must be positive")
	}
	if c.Lyria.Channels < 1 || c.Lyria.Channels > 8 {
		return errors.New("lyria.channels must be between 1 and 8")
	}
	if c.Lyria.SampleWidth < 1 || c.Lyria.SampleWidth > 4 {
		return errors.New("lyria.sample_width must be between 1 and 4 bytes")
	}
	if !strings.HasPrefix(c.Lyria.URL, "ws://") && !strings.HasPrefix(c.Lyria.URL, "wss://") {
		return errors.New("lyria.url must use ws:// or wss://")
	}
	return nil
}

func (c *Config) validateLedger() error {
	switch c.Ledger.Backend {
	case "", "json", "sqlite":
		return nil
	default:
		return fmt.Errorf("ledger.backend: unsupported value %q (want json or sqlite)", c.Ledger.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// CredentialHint returns the operator guidance for a missing provider key.
func CredentialHint(kind string) string {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigRelative
	}
	switch kind {
	case "image":
		return fmt.Sprintf("openai.api_key is required for image jobs. Set OPENAI_API_KEY or edit %s (create with 'assetgen config init')", defaultPath)
	case "audio":
		return fmt.Sprintf("lyria.api_key is required for audio jobs. Set GOOGLE_API_KEY or edit %s (create with 'assetgen config init')", defaultPath)
	default:
		return fmt.Sprintf("credentials for %s jobs are missing", kind)
	}
}
