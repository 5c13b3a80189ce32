package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"assetgen/internal/artifact"
	"assetgen/internal/money"
	"assetgen/internal/producer"
)

// ErrInvalid marks a catalog that cannot be run as written.
var ErrInvalid = errors.New("invalid catalog")

// Header holds per-catalog overrides of the run configuration.
type Header struct {
	Name            string   `toml:"name" yaml:"name" validate:"omitempty,max=128"`
	Kind            string   `toml:"kind" yaml:"kind" validate:"omitempty,max=32"`
	Extension       string   `toml:"extension" yaml:"extension" validate:"omitempty,max=16"`
	OutputSubdir    string   `toml:"output_subdir" yaml:"output_subdir"`
	DefaultClass    string   `toml:"default_class" yaml:"default_class"`
	BudgetCap       *float64 `toml:"budget_cap" yaml:"budget_cap" validate:"omitempty,gte=0"`
	ThrottleSeconds *float64 `toml:"throttle_seconds" yaml:"throttle_seconds" validate:"omitempty,gte=0"`
	Ledger          string   `toml:"ledger" yaml:"ledger"`
}

// PricingOverride replaces parts of the configured price table.
type PricingOverride struct {
	Default *float64           `toml:"default" yaml:"default" validate:"omitempty,gte=0"`
	Classes map[string]float64 `toml:"classes" yaml:"classes" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
}

// Entry is one declared asset as written in the file.
type Entry struct {
	ID         string         `toml:"id" yaml:"id" validate:"required,max=512"`
	Kind       string         `toml:"kind" yaml:"kind" validate:"omitempty,max=32"`
	Class      string         `toml:"class" yaml:"class" validate:"omitempty,max=64"`
	Parameters map[string]any `toml:"parameters" yaml:"parameters" validate:"required,min=1"`
}

type document struct {
	Catalog Header           `toml:"catalog" yaml:"catalog"`
	Pricing *PricingOverride `toml:"pricing" yaml:"pricing"`
	Jobs    []Entry          `toml:"jobs" yaml:"jobs" validate:"required,min=1,dive"`
}

// Catalog is a parsed, validated catalog file.
type Catalog struct {
	Path    string
	Format  string
	Header  Header
	Pricing *PricingOverride
	Entries []Entry
}

// Name returns the header name or the file stem.
func (c *Catalog) Name() string {
	if name := strings.TrimSpace(c.Header.Name); name != "" {
		return name
	}
	return strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
}

// Resolve finds a catalog by path, or by bare name inside dir
// (dir/name.toml, dir/name.yaml, dir/name.yml).
func Resolve(nameOrPath, dir string) (string, error) {
	nameOrPath = strings.TrimSpace(nameOrPath)
	if nameOrPath == "" {
		return "", fmt.Errorf("%w: catalog name is required", ErrInvalid)
	}
	if info, err := os.Stat(nameOrPath); err == nil && !info.IsDir() {
		return filepath.Abs(nameOrPath)
	}
	if filepath.Ext(nameOrPath) == "" && !strings.ContainsRune(nameOrPath, filepath.Separator) {
		for _, ext := range []string{".toml", ".yaml", ".yml"} {
			candidate := filepath.Join(dir, nameOrPath+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("catalog %q not found (looked in %s)", nameOrPath, dir)
}

// Load reads and validates a catalog file. The format follows the extension.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc document
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch format {
	case "toml":
		decoder := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalid, filepath.Base(path), err)
		}
	case "yaml", "yml":
		format = "yaml"
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalid, filepath.Base(path), err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported catalog extension %q", ErrInvalid, filepath.Ext(path))
	}

	if err := validateDocument(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &Catalog{
		Path:    path,
		Format:  format,
		Header:  doc.Catalog,
		Pricing: doc.Pricing,
		Entries: doc.Jobs,
	}, nil
}

// normalize trims fields, applies NFC to ids, and checks paths and
// uniqueness.
func normalize(doc *document) error {
	h := &doc.Catalog
	h.Name = strings.TrimSpace(h.Name)
	h.Kind = strings.ToLower(strings.TrimSpace(h.Kind))
	h.Extension = strings.TrimSpace(h.Extension)
	h.DefaultClass = normalizeClass(h.DefaultClass)
	h.Ledger = strings.TrimSpace(h.Ledger)
	h.OutputSubdir = strings.Trim(strings.TrimSpace(h.OutputSubdir), "/")
	if h.OutputSubdir != "" {
		if err := artifact.ValidateID(h.OutputSubdir); err != nil {
			return fmt.Errorf("%w: catalog.output_subdir: %w", ErrInvalid, err)
		}
	}

	seen := make(map[string]int, len(doc.Jobs))
	for i := range doc.Jobs {
		entry := &doc.Jobs[i]
		entry.ID = norm.NFC.String(strings.TrimSpace(entry.ID))
		entry.Kind = strings.ToLower(strings.TrimSpace(entry.Kind))
		entry.Class = normalizeClass(entry.Class)
		if err := artifact.ValidateID(entry.ID); err != nil {
			return fmt.Errorf("%w: jobs[%d].id: %w", ErrInvalid, i, err)
		}
		if first, dup := seen[entry.ID]; dup {
			return fmt.Errorf("%w: jobs[%d].id %q duplicates jobs[%d]", ErrInvalid, i, entry.ID, first)
		}
		seen[entry.ID] = i
		if entry.Kind == "" && h.Kind == "" {
			return fmt.Errorf("%w: jobs[%d] (%s) has no kind and the catalog header sets none", ErrInvalid, i, entry.ID)
		}
	}
	if doc.Pricing != nil && len(doc.Pricing.Classes) > 0 {
		classes := make(map[string]float64, len(doc.Pricing.Classes))
		for class, price := range doc.Pricing.Classes {
			classes[normalizeClass(class)] = price
		}
		doc.Pricing.Classes = classes
	}
	return nil
}

// BudgetCap returns the header override or fallback.
func (c *Catalog) BudgetCap(fallback money.Amount) money.Amount {
	if c.Header.BudgetCap != nil {
		return money.FromFloat(*c.Header.BudgetCap)
	}
	return fallback
}

// ThrottleInterval returns the header override or fallback.
func (c *Catalog) ThrottleInterval(fallback time.Duration) time.Duration {
	if c.Header.ThrottleSeconds != nil {
		return time.Duration(*c.Header.ThrottleSeconds * float64(time.Second))
	}
	return fallback
}

// LedgerPath returns the header override, resolved against the catalog's
// directory when relative, or fallback.
func (c *Catalog) LedgerPath(fallback string) string {
	if c.Header.Ledger == "" {
		return fallback
	}
	if filepath.IsAbs(c.Header.Ledger) {
		return filepath.Clean(c.Header.Ledger)
	}
	return filepath.Join(filepath.Dir(c.Path), c.Header.Ledger)
}

// ArtifactRoot joins the header's output_subdir onto assetsDir.
func (c *Catalog) ArtifactRoot(assetsDir string) string {
	if c.Header.OutputSubdir == "" {
		return assetsDir
	}
	return filepath.Join(assetsDir, filepath.FromSlash(c.Header.OutputSubdir))
}

// Kinds lists the distinct producer kinds the catalog needs, in first-use
// order.
func (c *Catalog) Kinds() []producer.Kind {
	var kinds []producer.Kind
	seen := make(map[producer.Kind]bool)
	for _, entry := range c.Entries {
		kind := producer.Kind(entry.Kind)
		if kind == "" {
			kind = producer.Kind(c.Header.Kind)
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
