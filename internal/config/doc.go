// Package config loads, normalizes, and validates assetgen configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks for provider credentials
// (OPENAI_API_KEY, GOOGLE_API_KEY, GEMINI_API_KEY). The Config type holds the
// budget cap, price table, throttle interval, producer timeouts, and the
// locations of the asset tree and ledger.
//
// Always obtain settings through this package so downstream code receives
// absolute paths and clear, field-qualified validation errors.
package config
