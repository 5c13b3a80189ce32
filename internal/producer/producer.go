package producer

import (
	"context"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
)

// Kind names a producer family. Catalogs select one per job.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Producer turns job parameters into artifact bytes. Implementations must not
// touch the ledger and must honour ctx for cancellation and deadlines.
type Producer interface {
	Produce(ctx context.Context, params Parameters) ([]byte, error)
}

// Func adapts a function to the Producer interface.
type Func func(ctx context.Context, params Parameters) ([]byte, error)

// Produce calls f.
func (f Func) Produce(ctx context.Context, params Parameters) ([]byte, error) {
	return f(ctx, params)
}

// Validator is implemented by producers that can detect missing credentials
// or settings before any job runs.
type Validator interface {
	Validate() error
}

// Parameters is the opaque bag handed to a Producer. Values come straight from
// the catalog decoder, so numbers may arrive as int, int64, or float64.
type Parameters map[string]any

// Clone returns a shallow copy.
func (p Parameters) Clone() Parameters {
	if p == nil {
		return Parameters{}
	}
	return maps.Clone(p)
}

// String returns the trimmed string value for key.
func (p Parameters) String(key string) (string, bool) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// StringOr returns the value for key or fallback when absent.
func (p Parameters) StringOr(key, fallback string) string {
	if v, ok := p.String(key); ok {
		return v
	}
	return fallback
}

// Float returns key as a float64, accepting any numeric representation and
// numeric strings.
func (p Parameters) Float(key string) (float64, bool, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case float32:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case int32:
		return float64(v), true, nil
	case uint64:
		return float64(v), true, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, true, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidParameters, key, v)
		}
		return f, true, nil
	default:
		return 0, true, fmt.Errorf("%w: %s has unsupported type %T", ErrInvalidParameters, key, raw)
	}
}

// Int returns key as an int; fractional values are rejected.
func (p Parameters) Int(key string) (int, bool, error) {
	f, ok, err := p.Float(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) {
		return 0, true, fmt.Errorf("%w: %s=%v must be a whole number", ErrInvalidParameters, key, f)
	}
	return int(f), true, nil
}
