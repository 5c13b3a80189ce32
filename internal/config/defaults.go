package config

const (
	defaultAssetsDir             = "assets"
	defaultCatalogDir            = "catalogs"
	defaultLedgerPath            = ".assetgen/ledger.json"
	defaultLogDir                = "~/.local/share/assetgen/logs"
	defaultBudgetCap             = 5.00
	defaultCurrency              = "USD"
	defaultPrice                 = 0.08
	defaultThrottleSeconds       = 13
	defaultProducerTimeout       = 120
	defaultOpenAIBaseURL         = "https://api.openai.com/v1"
	defaultOpenAIModel           = "dall-e-3"
	defaultLyriaURL              = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateMusic"
	defaultLyriaModel            = "models/lyria-realtime-exp"
	defaultLyriaSampleRate       = 48000
	defaultLyriaChannels         = 2
	defaultLyriaSampleWidth      = 2
	defaultLedgerBackend         = ""
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultConfigRelative        = "~/.config/assetgen/config.toml"
	defaultProjectConfigFilename = "assetgen.toml"
)

// defaultPriceClasses mirrors the published per-image prices plus a free
// class for the experimental music model.
func defaultPriceClasses() map[string]float64 {
	return map[string]float64{
		"1024x1024/standard": 0.04,
		"1024x1024/hd":       0.08,
		"1024x1792/standard": 0.08,
		"1024x1792/hd":       0.12,
		"1792x1024/standard": 0.08,
		"1792x1024/hd":       0.12,
		"lyria/realtime":     0.00,
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AssetsDir:  defaultAssetsDir,
			CatalogDir: defaultCatalogDir,
			LedgerPath: defaultLedgerPath,
			LogDir:     defaultLogDir,
		},
		Budget: Budget{
			Cap:      defaultBudgetCap,
			Currency: defaultCurrency,
		},
		Pricing: Pricing{
			Default: defaultPrice,
			Classes: defaultPriceClasses(),
		},
		Throttle: Throttle{
			IntervalSeconds: defaultThrottleSeconds,
		},
		Producer: Producer{
			TimeoutSeconds: defaultProducerTimeout,
		},
		OpenAI: OpenAI{
			BaseURL: defaultOpenAIBaseURL,
			Model:   defaultOpenAIModel,
		},
		Lyria: Lyria{
			URL:         defaultLyriaURL,
			Model:       defaultLyriaModel,
			SampleRate:  defaultLyriaSampleRate,
			Channels:    defaultLyriaChannels,
			SampleWidth: defaultLyriaSampleWidth,
		},
		Ledger: Ledger{
			Backend: defaultLedgerBackend,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
