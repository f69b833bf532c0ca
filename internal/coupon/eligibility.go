package coupon

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-coupons/internal/models"
)

// Evaluate decides whether a coupon may be applied to the given cart
// state. Checks run in a fixed order and short-circuit on the first
// failure, each with its own reason code.
//
// A nil customerID means a guest checkout. Guests skip the per-customer
// ceiling (they cannot be tracked individually, only the global cap
// applies) but always fail customer targeting when the coupon is
// restricted to specific customers. This mirrors the storefront's
// accepted guest identity gap.
func Evaluate(c *models.Coupon, customerID *uuid.UUID, cartSubtotal decimal.Decimal, lines []models.CartLine, usage UsageSnapshot, now time.Time) EligibilityResult {
	if !c.IsActive {
		return EligibilityResult{Reason: ReasonInactive}
	}

	// Validity window is inclusive; a missing bound is open-ended.
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return EligibilityResult{Reason: ReasonNotYetActive}
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return EligibilityResult{Reason: ReasonExpired}
	}

	if c.MinOrderAmount != nil && cartSubtotal.LessThan(*c.MinOrderAmount) {
		return EligibilityResult{Reason: ReasonBelowMinimumOrder}
	}

	if c.MaxUsageCount != nil && usage.Total >= *c.MaxUsageCount {
		return EligibilityResult{Reason: ReasonUsageLimitReached}
	}

	if customerID != nil && c.MaxUsagePerCustomer != nil && usage.ByCustomer >= *c.MaxUsagePerCustomer {
		return EligibilityResult{Reason: ReasonCustomerLimitReached}
	}

	if !c.AppliesToAllCustomers {
		if customerID == nil || !containsID(c.ApplicableCustomerIDs, *customerID) {
			return EligibilityResult{Reason: ReasonCustomerNotEligible}
		}
	}

	eligible := eligibleLines(c, lines)
	if len(eligible) == 0 {
		return EligibilityResult{Reason: ReasonNoMatchingItems}
	}

	return EligibilityResult{OK: true, EligibleLines: eligible}
}

// eligibleLines filters the cart down to the lines the coupon's targeting
// rules accept. Exclusions win over everything, including
// AppliesToAllProducts.
func eligibleLines(c *models.Coupon, lines []models.CartLine) []models.CartLine {
	excluded := idSet(c.ExcludedProductIDs)
	products := idSet(c.ApplicableProductIDs)
	categories := idSet(c.ApplicableCategoryIDs)

	var eligible []models.CartLine
	for _, line := range lines {
		if excluded[line.ProductID] {
			continue
		}
		if c.AppliesToAllProducts || products[line.ProductID] || anyCategoryMatch(line.CategoryIDs, categories) {
			eligible = append(eligible, line)
		}
	}
	return eligible
}

func anyCategoryMatch(categoryIDs []uuid.UUID, set map[uuid.UUID]bool) bool {
	for _, id := range categoryIDs {
		if set[id] {
			return true
		}
	}
	return false
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
