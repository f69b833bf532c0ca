// Package coupon holds the pure coupon engine: the eligibility evaluator
// and the discount calculator. Neither function touches the database;
// usage counts are read by the caller and passed in, so both are
// deterministic for a given input and safe to call concurrently.
package coupon

import (
	"storefront-coupons/internal/models"
)

// Reason identifies which eligibility rule rejected a coupon.
type Reason string

const (
	ReasonInactive             Reason = "coupon_inactive"
	ReasonNotYetActive         Reason = "coupon_not_yet_active"
	ReasonExpired              Reason = "coupon_expired"
	ReasonBelowMinimumOrder    Reason = "below_minimum_order"
	ReasonUsageLimitReached    Reason = "usage_limit_reached"
	ReasonCustomerLimitReached Reason = "customer_limit_reached"
	ReasonCustomerNotEligible  Reason = "customer_not_eligible"
	ReasonNoMatchingItems      Reason = "no_matching_items"
)

// UsageSnapshot carries ledger counts read before evaluation. The counts
// are advisory at validation time; the committer re-reads them inside its
// own transaction.
type UsageSnapshot struct {
	// Total is the ledger count of redemptions for the coupon.
	Total int
	// ByCustomer is the ledger count for (coupon, customer). Ignored for
	// guest carts.
	ByCustomer int
}

// EligibilityResult is the outcome of Evaluate. EligibleLines is only set
// when OK is true and feeds Calculate directly, so targeting logic never
// runs twice.
type EligibilityResult struct {
	OK            bool
	Reason        Reason
	EligibleLines []models.CartLine
}
