package coupon

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-coupons/internal/models"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func decPtr(v decimal.Decimal) *decimal.Decimal { return &v }

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// baseCoupon returns an active, unrestricted coupon valid at any time.
func baseCoupon() *models.Coupon {
	return &models.Coupon{
		ID:                    uuid.New(),
		TenantID:              uuid.New(),
		Code:                  "SAVE10",
		DiscountType:          models.DiscountTypePercentage,
		DiscountValue:         dec("10"),
		AppliesToAllProducts:  true,
		AppliesToAllCustomers: true,
		IsActive:              true,
	}
}

func singleLine(total string) []models.CartLine {
	return []models.CartLine{{ProductID: uuid.New(), LineTotal: dec(total)}}
}

func TestEvaluateCheckOrder(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	customerID := uuid.New()

	tests := []struct {
		name       string
		setup      func(c *models.Coupon)
		customerID *uuid.UUID
		subtotal   decimal.Decimal
		lines      []models.CartLine
		usage      UsageSnapshot
		wantOK     bool
		wantReason Reason
	}{
		{
			name:       "active coupon passes all checks",
			setup:      func(c *models.Coupon) {},
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			wantOK:     true,
		},
		{
			name:       "inactive",
			setup:      func(c *models.Coupon) { c.IsActive = false },
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			wantReason: ReasonInactive,
		},
		{
			name: "inactive reported before expired",
			setup: func(c *models.Coupon) {
				c.IsActive = false
				c.ValidTo = timePtr(now.Add(-time.Hour))
			},
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			wantReason: ReasonInactive,
		},
		{
			name:       "not yet active",
			setup:      func(c *models.Coupon) { c.ValidFrom = timePtr(now.Add(time.Hour)) },
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			wantReason: ReasonNotYetActive,
		},
		{
			name:       "expired",
			setup:      func(c *models.Coupon) { c.ValidTo = timePtr(now.Add(-time.Minute)) },
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			wantReason: ReasonExpired,
		},
		{
			name:       "window bounds are inclusive",
			setup:      func(c *models.Coupon) { c.ValidFrom = timePtr(now); c.ValidTo = timePtr(now) },
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			wantOK:     true,
		},
		{
			name:       "below minimum order",
			setup:      func(c *models.Coupon) { c.MinOrderAmount = decPtr(dec("50.00")) },
			customerID: uuidPtr(customerID),
			subtotal:   dec("49.99"),
			lines:      singleLine("49.99"),
			wantReason: ReasonBelowMinimumOrder,
		},
		{
			name:       "minimum order met exactly",
			setup:      func(c *models.Coupon) { c.MinOrderAmount = decPtr(dec("50.00")) },
			customerID: uuidPtr(customerID),
			subtotal:   dec("50.00"),
			lines:      singleLine("50.00"),
			wantOK:     true,
		},
		{
			name:       "global usage limit reached",
			setup:      func(c *models.Coupon) { c.MaxUsageCount = intPtr(3) },
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			usage:      UsageSnapshot{Total: 3},
			wantReason: ReasonUsageLimitReached,
		},
		{
			name:       "one unit left under global limit",
			setup:      func(c *models.Coupon) { c.MaxUsageCount = intPtr(3) },
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			usage:      UsageSnapshot{Total: 2},
			wantOK:     true,
		},
		{
			name:       "per-customer limit reached",
			setup:      func(c *models.Coupon) { c.MaxUsagePerCustomer = intPtr(1) },
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			usage:      UsageSnapshot{Total: 5, ByCustomer: 1},
			wantReason: ReasonCustomerLimitReached,
		},
		{
			name:       "guest skips per-customer limit",
			setup:      func(c *models.Coupon) { c.MaxUsagePerCustomer = intPtr(1) },
			customerID: nil,
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			usage:      UsageSnapshot{Total: 5},
			wantOK:     true,
		},
		{
			name: "customer not on target list",
			setup: func(c *models.Coupon) {
				c.AppliesToAllCustomers = false
				c.ApplicableCustomerIDs = []uuid.UUID{uuid.New()}
			},
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			wantReason: ReasonCustomerNotEligible,
		},
		{
			name: "targeted customer allowed",
			setup: func(c *models.Coupon) {
				c.AppliesToAllCustomers = false
				c.ApplicableCustomerIDs = []uuid.UUID{customerID}
			},
			customerID: uuidPtr(customerID),
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			wantOK:     true,
		},
		{
			name: "guest fails customer targeting",
			setup: func(c *models.Coupon) {
				c.AppliesToAllCustomers = false
				c.ApplicableCustomerIDs = []uuid.UUID{customerID}
			},
			customerID: nil,
			subtotal:   dec("100.00"),
			lines:      singleLine("100.00"),
			wantReason: ReasonCustomerNotEligible,
		},
		{
			name:       "empty cart has no matching items",
			setup:      func(c *models.Coupon) {},
			customerID: uuidPtr(customerID),
			subtotal:   decimal.Zero,
			lines:      nil,
			wantReason: ReasonNoMatchingItems,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCoupon()
			tt.setup(c)

			result := Evaluate(c, tt.customerID, tt.subtotal, tt.lines, tt.usage, now)
			if result.OK != tt.wantOK {
				t.Fatalf("Evaluate OK = %v, want %v (reason %q)", result.OK, tt.wantOK, result.Reason)
			}
			if !tt.wantOK && result.Reason != tt.wantReason {
				t.Errorf("Evaluate reason = %q, want %q", result.Reason, tt.wantReason)
			}
			if tt.wantOK && len(result.EligibleLines) == 0 && len(tt.lines) > 0 {
				t.Error("Evaluate returned OK with no eligible lines")
			}
		})
	}
}

func TestEvaluateProductTargeting(t *testing.T) {
	now := time.Now()
	customerID := uuid.New()

	targetProduct := uuid.New()
	otherProduct := uuid.New()
	targetCategory := uuid.New()

	t.Run("only targeted product lines are eligible", func(t *testing.T) {
		c := baseCoupon()
		c.AppliesToAllProducts = false
		c.ApplicableProductIDs = []uuid.UUID{targetProduct}

		lines := []models.CartLine{
			{ProductID: targetProduct, LineTotal: dec("40.00")},
			{ProductID: otherProduct, LineTotal: dec("60.00")},
		}

		result := Evaluate(c, &customerID, dec("100.00"), lines, UsageSnapshot{}, now)
		if !result.OK {
			t.Fatalf("Evaluate failed with reason %q", result.Reason)
		}
		if len(result.EligibleLines) != 1 || result.EligibleLines[0].ProductID != targetProduct {
			t.Errorf("eligible lines = %v, want single line for %s", result.EligibleLines, targetProduct)
		}
	})

	t.Run("category match qualifies a line", func(t *testing.T) {
		c := baseCoupon()
		c.AppliesToAllProducts = false
		c.ApplicableCategoryIDs = []uuid.UUID{targetCategory}

		lines := []models.CartLine{
			{ProductID: otherProduct, CategoryIDs: []uuid.UUID{targetCategory}, LineTotal: dec("25.00")},
		}

		result := Evaluate(c, &customerID, dec("25.00"), lines, UsageSnapshot{}, now)
		if !result.OK {
			t.Fatalf("Evaluate failed with reason %q", result.Reason)
		}
	})

	t.Run("exclusion wins over applies to all products", func(t *testing.T) {
		c := baseCoupon()
		c.ExcludedProductIDs = []uuid.UUID{targetProduct}

		lines := []models.CartLine{{ProductID: targetProduct, LineTotal: dec("80.00")}}

		result := Evaluate(c, &customerID, dec("80.00"), lines, UsageSnapshot{}, now)
		if result.OK {
			t.Fatal("Evaluate accepted a cart containing only excluded products")
		}
		if result.Reason != ReasonNoMatchingItems {
			t.Errorf("reason = %q, want %q", result.Reason, ReasonNoMatchingItems)
		}
	})

	t.Run("exclusion wins over explicit product target", func(t *testing.T) {
		c := baseCoupon()
		c.AppliesToAllProducts = false
		c.ApplicableProductIDs = []uuid.UUID{targetProduct}
		c.ExcludedProductIDs = []uuid.UUID{targetProduct}

		lines := []models.CartLine{{ProductID: targetProduct, LineTotal: dec("80.00")}}

		result := Evaluate(c, &customerID, dec("80.00"), lines, UsageSnapshot{}, now)
		if result.OK {
			t.Fatal("Evaluate accepted an excluded product")
		}
	})
}
