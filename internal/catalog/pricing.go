package catalog

import (
	"maps"
	"slices"

	"assetgen/internal/config"
	"assetgen/internal/money"
)

// PriceTable maps price classes to per-job cost. Lookups of unknown classes
// return Default.
type PriceTable struct {
	Default money.Amount
	Classes map[string]money.Amount
}

// PricesFromConfig builds the table configured under [pricing].
func PricesFromConfig(cfg *config.Config) PriceTable {
	return PriceTable{Default: cfg.PriceDefault(), Classes: cfg.PriceClasses()}
}

// Cost returns the price of class and whether the class was listed.
func (t PriceTable) Cost(class string) (money.Amount, bool) {
	if price, ok := t.Classes[normalizeClass(class)]; ok {
		return price, true
	}
	return t.Default, false
}

// Names lists the classes in sorted order.
func (t PriceTable) Names() []string {
	return slices.Sorted(maps.Keys(t.Classes))
}

// WithOverride layers a catalog's [pricing] section over t. Listed classes
// are replaced individually; the rest are kept.
func (t PriceTable) WithOverride(override *PricingOverride) PriceTable {
	out := PriceTable{Default: t.Default, Classes: maps.Clone(t.Classes)}
	if out.Classes == nil {
		out.Classes = make(map[string]money.Amount)
	}
	if override == nil {
		return out
	}
	if override.Default != nil {
		out.Default = money.FromFloat(*override.Default)
	}
	for class, price := range override.Classes {
		out.Classes[normalizeClass(class)] = money.FromFloat(price)
	}
	return out
}

func normalizeClass(class string) string {
	if class == "" {
		return ""
	}
	return config.NormalizeClass(class)
}
