package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-coupons/internal/database"
	"storefront-coupons/internal/models"
)

type fakeCouponStore struct {
	coupons map[string]*models.Coupon
}

// GetCouponByCode mirrors the real store's case-insensitive lookup.
func (f *fakeCouponStore) GetCouponByCode(tenantID uuid.UUID, code string) (*models.Coupon, error) {
	c, ok := f.coupons[strings.ToUpper(code)]
	if !ok || c.TenantID != tenantID {
		return nil, database.ErrCouponNotFound
	}
	return c, nil
}

type fakeUsageStore struct {
	total         int
	byCustomer    int
	totalCalls    int
	customerCalls int
}

func (f *fakeUsageStore) CountByCoupon(couponID uuid.UUID) (int, error) {
	f.totalCalls++
	return f.total, nil
}

func (f *fakeUsageStore) CountByCouponAndCustomer(couponID, customerID uuid.UUID) (int, error) {
	f.customerCalls++
	return f.byCustomer, nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testCoupon(tenantID uuid.UUID) *models.Coupon {
	return &models.Coupon{
		ID:                    uuid.New(),
		TenantID:              tenantID,
		Code:                  "SAVE10",
		DiscountType:          models.DiscountTypePercentage,
		DiscountValue:         dec("10"),
		AppliesToAllProducts:  true,
		AppliesToAllCustomers: true,
		IsActive:              true,
	}
}

func cartLines(total string) []models.CartLine {
	return []models.CartLine{{ProductID: uuid.New(), LineTotal: dec(total)}}
}

func TestValidateCouponSuccess(t *testing.T) {
	tenantID := uuid.New()
	c := testCoupon(tenantID)
	svc := NewCouponService(
		&fakeCouponStore{coupons: map[string]*models.Coupon{"SAVE10": c}},
		&fakeUsageStore{},
	)

	result, err := svc.ValidateCoupon(tenantID, "SAVE10", nil, dec("200.00"), cartLines("200.00"))
	if err != nil {
		t.Fatalf("ValidateCoupon failed: %v", err)
	}
	if !result.IsValid {
		t.Fatalf("expected valid result, got error message %q", result.ErrorMessage)
	}
	if !result.DiscountAmount.Equal(dec("20.00")) {
		t.Errorf("discount = %s, want 20.00", result.DiscountAmount)
	}
	if result.Coupon == nil || result.Coupon.ID != c.ID {
		t.Error("result should carry the matched coupon")
	}
}

func TestValidateCouponCaseInsensitive(t *testing.T) {
	tenantID := uuid.New()
	c := testCoupon(tenantID)
	svc := NewCouponService(
		&fakeCouponStore{coupons: map[string]*models.Coupon{"SAVE10": c}},
		&fakeUsageStore{},
	)

	for _, code := range []string{"save10", "Save10", "SAVE10"} {
		result, err := svc.ValidateCoupon(tenantID, code, nil, dec("100.00"), cartLines("100.00"))
		if err != nil {
			t.Fatalf("ValidateCoupon(%q) failed: %v", code, err)
		}
		if !result.IsValid {
			t.Errorf("ValidateCoupon(%q) invalid: %s", code, result.ErrorMessage)
		}
	}
}

func TestValidateCouponNotFoundIsGeneric(t *testing.T) {
	tenantID := uuid.New()
	otherTenant := uuid.New()
	c := testCoupon(otherTenant)
	svc := NewCouponService(
		&fakeCouponStore{coupons: map[string]*models.Coupon{"SAVE10": c}},
		&fakeUsageStore{},
	)

	// Unknown code and wrong-tenant code must be indistinguishable.
	for _, code := range []string{"NOSUCH", "SAVE10"} {
		result, err := svc.ValidateCoupon(tenantID, code, nil, dec("100.00"), cartLines("100.00"))
		if err != nil {
			t.Fatalf("ValidateCoupon(%q) failed: %v", code, err)
		}
		if result.IsValid {
			t.Fatalf("ValidateCoupon(%q) should be invalid", code)
		}
		if result.ErrorMessage != "Invalid coupon code" {
			t.Errorf("ValidateCoupon(%q) message = %q, want generic not-found", code, result.ErrorMessage)
		}
	}
}

func TestValidateCouponReasonMessages(t *testing.T) {
	tenantID := uuid.New()
	customerID := uuid.New()
	limit := 1
	minOrder := dec("50.00")
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name        string
		setup       func(c *models.Coupon)
		customerID  *uuid.UUID
		subtotal    decimal.Decimal
		usage       fakeUsageStore
		wantMessage string
	}{
		{
			name:        "inactive",
			setup:       func(c *models.Coupon) { c.IsActive = false },
			subtotal:    dec("100.00"),
			wantMessage: "This coupon is not active",
		},
		{
			name:        "not yet valid",
			setup:       func(c *models.Coupon) { c.ValidFrom = &future },
			subtotal:    dec("100.00"),
			wantMessage: "This coupon is not yet valid",
		},
		{
			name:        "expired",
			setup:       func(c *models.Coupon) { c.ValidTo = &past },
			subtotal:    dec("100.00"),
			wantMessage: "This coupon has expired",
		},
		{
			name:        "below minimum includes the threshold",
			setup:       func(c *models.Coupon) { c.MinOrderAmount = &minOrder },
			subtotal:    dec("10.00"),
			wantMessage: "Minimum order amount of 50.00 required",
		},
		{
			name:        "usage limit reached",
			setup:       func(c *models.Coupon) { c.MaxUsageCount = &limit },
			subtotal:    dec("100.00"),
			usage:       fakeUsageStore{total: 1},
			wantMessage: "Coupon usage limit reached",
		},
		{
			name:        "customer limit reached",
			setup:       func(c *models.Coupon) { c.MaxUsagePerCustomer = &limit },
			customerID:  &customerID,
			subtotal:    dec("100.00"),
			usage:       fakeUsageStore{byCustomer: 1},
			wantMessage: "You have already used this coupon",
		},
		{
			name: "customer not eligible",
			setup: func(c *models.Coupon) {
				c.AppliesToAllCustomers = false
				c.ApplicableCustomerIDs = []uuid.UUID{uuid.New()}
			},
			customerID:  &customerID,
			subtotal:    dec("100.00"),
			wantMessage: "This coupon is not available for your account",
		},
		{
			name: "no matching items",
			setup: func(c *models.Coupon) {
				c.AppliesToAllProducts = false
				c.ApplicableProductIDs = []uuid.UUID{uuid.New()}
			},
			customerID:  &customerID,
			subtotal:    dec("100.00"),
			wantMessage: "This coupon does not apply to the items in your cart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCoupon(tenantID)
			tt.setup(c)
			usage := tt.usage
			svc := NewCouponService(
				&fakeCouponStore{coupons: map[string]*models.Coupon{"SAVE10": c}},
				&usage,
			)

			result, err := svc.ValidateCoupon(tenantID, "SAVE10", tt.customerID, tt.subtotal, cartLines(tt.subtotal.String()))
			if err != nil {
				t.Fatalf("ValidateCoupon failed: %v", err)
			}
			if result.IsValid {
				t.Fatal("expected invalid result")
			}
			if result.ErrorMessage != tt.wantMessage {
				t.Errorf("message = %q, want %q", result.ErrorMessage, tt.wantMessage)
			}
			if !result.DiscountAmount.IsZero() {
				t.Errorf("invalid result carries discount %s", result.DiscountAmount)
			}
		})
	}
}

func TestValidateCouponSkipsIrrelevantCounts(t *testing.T) {
	tenantID := uuid.New()
	c := testCoupon(tenantID)
	usage := &fakeUsageStore{total: 99, byCustomer: 99}
	svc := NewCouponService(
		&fakeCouponStore{coupons: map[string]*models.Coupon{"SAVE10": c}},
		usage,
	)

	// No limits configured, so no ledger queries should run.
	result, err := svc.ValidateCoupon(tenantID, "SAVE10", nil, dec("100.00"), cartLines("100.00"))
	if err != nil {
		t.Fatalf("ValidateCoupon failed: %v", err)
	}
	if !result.IsValid {
		t.Fatalf("expected valid result, got %q", result.ErrorMessage)
	}
	if usage.totalCalls != 0 || usage.customerCalls != 0 {
		t.Errorf("ledger queried %d/%d times for an unlimited coupon", usage.totalCalls, usage.customerCalls)
	}
}
