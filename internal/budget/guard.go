// Package budget decides whether a job's cost fits under the spend cap.
//
// The guard is pure: callers pass the ledger's current total at decision
// time, so sequentially committed jobs in the same run tighten the budget for
// everything that follows.
package budget

import (
	"fmt"

	"assetgen/internal/money"
)

// Allow reports whether spending cost on top of spent stays within limit.
func Allow(spent, cost, limit money.Amount) bool {
	return spent+cost <= limit
}

// Remaining returns the headroom left under limit, never below zero.
func Remaining(spent, limit money.Amount) money.Amount {
	if spent >= limit {
		return money.Zero
	}
	return limit - spent
}

// Decision captures the inputs and outcome of a single guard evaluation.
type Decision struct {
	Spent     money.Amount
	Cost      money.Amount
	Cap       money.Amount
	Projected money.Amount
	Allowed   bool
}

// Evaluate runs the guard and keeps the projected total for reporting.
func Evaluate(spent, cost, limit money.Amount) Decision {
	return Decision{
		Spent:     spent,
		Cost:      cost,
		Cap:       limit,
		Projected: spent + cost,
		Allowed:   Allow(spent, cost, limit),
	}
}

// Reason describes a denied decision in the "projected exceeds cap" form used
// by run logs.
func (d Decision) Reason() string {
	if d.Allowed {
		return ""
	}
	return fmt.Sprintf("projected %s exceeds cap %s (spent %s + cost %s)",
		d.Projected, d.Cap, d.Spent, d.Cost)
}
