// Package catalog loads asset catalogs and turns them into runnable jobs.
//
// A catalog is a TOML or YAML file with an optional [catalog] header, an
// optional [pricing] override, and an ordered list of [[jobs]]. Build resolves
// each entry's producer from a producer.Registry and its cost from a
// PriceTable; the resulting Jobs are immutable and keep file order.
package catalog
