package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount type constants
const (
	DiscountTypePercentage  = "percentage"
	DiscountTypeFixedAmount = "fixed_amount"
)

// Coupon represents a tenant-scoped, code-activated discount rule.
// The code is unique per tenant, case-insensitively.
type Coupon struct {
	ID                    uuid.UUID        `json:"id"`
	TenantID              uuid.UUID        `json:"tenant_id"`
	Code                  string           `json:"code"`
	Name                  string           `json:"name"`
	Description           string           `json:"description"`
	DiscountType          string           `json:"discount_type"`
	DiscountValue         decimal.Decimal  `json:"discount_value"`
	Currency              string           `json:"currency"`
	MinOrderAmount        *decimal.Decimal `json:"min_order_amount,omitempty"`
	MaxDiscountAmount     *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MaxUsageCount         *int             `json:"max_usage_count,omitempty"`
	MaxUsagePerCustomer   *int             `json:"max_usage_per_customer,omitempty"`
	ValidFrom             *time.Time       `json:"valid_from,omitempty"`
	ValidTo               *time.Time       `json:"valid_to,omitempty"`
	AppliesToAllProducts  bool             `json:"applies_to_all_products"`
	AppliesToAllCustomers bool             `json:"applies_to_all_customers"`
	IsActive              bool             `json:"is_active"`
	UsageCount            int              `json:"usage_count"`
	CreatedBy             *uuid.UUID       `json:"created_by,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`

	// Targeting sets. Product/category sets are ignored when
	// AppliesToAllProducts is true, except ExcludedProductIDs which
	// always applies.
	ApplicableProductIDs  []uuid.UUID `json:"applicable_product_ids"`
	ApplicableCategoryIDs []uuid.UUID `json:"applicable_category_ids"`
	ExcludedProductIDs    []uuid.UUID `json:"excluded_product_ids"`
	ApplicableCustomerIDs []uuid.UUID `json:"applicable_customer_ids"`
}

// CouponUsage is one row of the append-only redemption ledger. Rows are
// written exactly once at order completion and never updated or deleted.
type CouponUsage struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	CouponID       uuid.UUID       `json:"coupon_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	SessionID      string          `json:"session_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UsedAt         time.Time       `json:"used_at"`
}

// CartLine is the engine's view of one cart line. It is supplied by the
// checkout flow and never persisted here.
type CartLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	CategoryIDs []uuid.UUID     `json:"category_ids"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CouponRequest is the admin payload for creating or updating a coupon.
type CouponRequest struct {
	Code                  string           `json:"code" binding:"required,min=2,max=50"`
	Name                  string           `json:"name" binding:"required,min=1,max=255"`
	Description           string           `json:"description" binding:"max=500"`
	DiscountType          string           `json:"discount_type" binding:"required,oneof=percentage fixed_amount"`
	DiscountValue         decimal.Decimal  `json:"discount_value"`
	Currency              string           `json:"currency" binding:"omitempty,len=3"`
	MinOrderAmount        *decimal.Decimal `json:"min_order_amount,omitempty"`
	MaxDiscountAmount     *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MaxUsageCount         *int             `json:"max_usage_count,omitempty"`
	MaxUsagePerCustomer   *int             `json:"max_usage_per_customer,omitempty"`
	ValidFrom             *time.Time       `json:"valid_from,omitempty"`
	ValidTo               *time.Time       `json:"valid_to,omitempty"`
	AppliesToAllProducts  bool             `json:"applies_to_all_products"`
	AppliesToAllCustomers bool             `json:"applies_to_all_customers"`
	IsActive              bool             `json:"is_active"`
	ApplicableProductIDs  []uuid.UUID      `json:"applicable_product_ids"`
	ApplicableCategoryIDs []uuid.UUID      `json:"applicable_category_ids"`
	ExcludedProductIDs    []uuid.UUID      `json:"excluded_product_ids"`
	ApplicableCustomerIDs []uuid.UUID      `json:"applicable_customer_ids"`
}

// CouponResponse is a coupon with derived state for admin listings.
type CouponResponse struct {
	Coupon
	IsExpired       bool `json:"is_expired"`
	IsUsageExceeded bool `json:"is_usage_exceeded"`
}

// CouponListResponse represents a paginated list of coupons.
type CouponListResponse struct {
	Coupons []CouponResponse `json:"coupons"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

// ValidateCouponRequest is the storefront payload for checking a code
// against the current cart state. It is sent again on every cart change.
type ValidateCouponRequest struct {
	Code         string          `json:"code" binding:"required"`
	CustomerID   *uuid.UUID      `json:"customer_id,omitempty"`
	CartSubtotal decimal.Decimal `json:"cart_subtotal"`
	Lines        []CartLine      `json:"lines" binding:"required,min=1"`
}

// CouponValidationResult is the outcome of a read-only validation.
// DiscountAmount is zero whenever IsValid is false.
type CouponValidationResult struct {
	IsValid        bool            `json:"is_valid"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Coupon         *Coupon         `json:"coupon,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// RedeemRequest asks the committer to consume one unit of a coupon's
// quota for a completed order. DiscountAmount is the figure previously
// shown to the customer; it is recorded as-is, not recomputed.
type RedeemRequest struct {
	CouponID       uuid.UUID       `json:"coupon_id" binding:"required"`
	OrderID        uuid.UUID       `json:"order_id" binding:"required"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// CommitResult reports whether a redemption was durably recorded.
type CommitResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// CouponStats is a read-only aggregation over the usage ledger.
type CouponStats struct {
	CouponID          uuid.UUID       `json:"coupon_id"`
	UsageCount        int             `json:"usage_count"`
	UniqueCustomers   int             `json:"unique_customers"`
	TotalDiscount     decimal.Decimal `json:"total_discount"`
	AverageDiscount   decimal.Decimal `json:"average_discount"`
	RecentRedemptions []CouponUsage   `json:"recent_redemptions"`
}
