package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"assetgen/internal/money"
	"assetgen/internal/producer"
)

// Job is one runnable unit. It is immutable once Build returns.
type Job struct {
	ID         string
	Kind       producer.Kind
	Class      string
	Cost       money.Amount
	Priced     bool // false when Class fell back to the table default
	Parameters producer.Parameters
	Producer   producer.Producer
	Extension  string
	Category   string
}

var titleCaser = cases.Title(language.English)

// Build resolves producers and costs for every entry, keeping file order.
func (c *Catalog) Build(registry *producer.Registry, prices PriceTable) ([]Job, error) {
	if registry == nil {
		return nil, fmt.Errorf("producer registry is required")
	}
	prices = prices.WithOverride(c.Pricing)
	jobs := make([]Job, 0, len(c.Entries))
	for i, entry := range c.Entries {
		kind := producer.Kind(entry.Kind)
		if kind == "" {
			kind = producer.Kind(c.Header.Kind)
		}
		binding, ok := registry.Lookup(kind)
		if !ok {
			return nil, fmt.Errorf("%w: jobs[%d] (%s): no producer for kind %q", ErrInvalid, i, entry.ID, kind)
		}

		params := producer.Parameters(entry.Parameters).Clone()
		fallback := firstNonEmpty(c.Header.DefaultClass, normalizeClass(binding.DefaultClass))
		class := firstNonEmpty(entry.Class, fallback)
		if binding.Classify != nil {
			derived, resolved, err := binding.Classify(params, entry.Class, fallback)
			if err != nil {
				return nil, fmt.Errorf("%w: jobs[%d] (%s): %w", ErrInvalid, i, entry.ID, err)
			}
			class, params = normalizeClass(derived), resolved
		}
		cost, priced := prices.Cost(class)

		ext := binding.Extension
		if c.Header.Extension != "" {
			ext = c.Header.Extension
		}
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		jobs = append(jobs, Job{
			ID:         entry.ID,
			Kind:       binding.Kind,
			Class:      class,
			Cost:       cost,
			Priced:     priced,
			Parameters: params,
			Producer:   binding.Producer,
			Extension:  ext,
			Category:   Category(entry.ID),
		})
	}
	return jobs, nil
}

// Category labels a job by its top-level directory ("sprites/cds/cd_demo"
// becomes "Sprites").
func Category(id string) string {
	head, _, found := strings.Cut(id, "/")
	if !found {
		return "General"
	}
	return titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(head))
}

// Estimate sums the cost of jobs.
func Estimate(jobs []Job) money.Amount {
	var total money.Amount
	for _, job := range jobs {
		total += job.Cost
	}
	return total
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
