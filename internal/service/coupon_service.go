package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-coupons/internal/coupon"
	"storefront-coupons/internal/database"
	"storefront-coupons/internal/models"
)

// Stores required by the service (interfaces to allow mocking).
type CouponStore interface {
	GetCouponByCode(tenantID uuid.UUID, code string) (*models.Coupon, error)
}

type UsageStore interface {
	CountByCoupon(couponID uuid.UUID) (int, error)
	CountByCouponAndCustomer(couponID, customerID uuid.UUID) (int, error)
}

// CouponService is the read-only validation path. It may be called on
// every cart mutation to keep the discount preview current; it never
// writes. Only the redemption committer consumes quota.
type CouponService struct {
	coupons CouponStore
	usage   UsageStore
}

func NewCouponService(coupons CouponStore, usage UsageStore) *CouponService {
	return &CouponService{coupons: coupons, usage: usage}
}

// genericNotFound deliberately does not distinguish "wrong tenant" from
// "never existed".
const genericNotFound = "Invalid coupon code"

// ValidateCoupon checks a code against the current cart state and, when
// eligible, computes the provisional discount. The result is advisory:
// the committer re-checks limits at order completion.
func (s *CouponService) ValidateCoupon(tenantID uuid.UUID, code string, customerID *uuid.UUID, cartSubtotal decimal.Decimal, lines []models.CartLine) (*models.CouponValidationResult, error) {
	c, err := s.coupons.GetCouponByCode(tenantID, code)
	if err != nil {
		if errors.Is(err, database.ErrCouponNotFound) {
			return &models.CouponValidationResult{
				IsValid:        false,
				ErrorMessage:   genericNotFound,
				DiscountAmount: decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	usage, err := s.usageSnapshot(c, customerID)
	if err != nil {
		return nil, err
	}

	result := coupon.Evaluate(c, customerID, cartSubtotal, lines, usage, time.Now())
	if !result.OK {
		return &models.CouponValidationResult{
			IsValid:        false,
			ErrorMessage:   reasonMessage(result.Reason, c),
			DiscountAmount: decimal.Zero,
		}, nil
	}

	return &models.CouponValidationResult{
		IsValid:        true,
		Coupon:         c,
		DiscountAmount: coupon.Calculate(c, result.EligibleLines),
	}, nil
}

// usageSnapshot reads ledger counts, skipping queries the coupon's limits
// make irrelevant.
func (s *CouponService) usageSnapshot(c *models.Coupon, customerID *uuid.UUID) (coupon.UsageSnapshot, error) {
	var snapshot coupon.UsageSnapshot

	if c.MaxUsageCount != nil {
		total, err := s.usage.CountByCoupon(c.ID)
		if err != nil {
			return snapshot, fmt.Errorf("failed to count coupon usage: %w", err)
		}
		snapshot.Total = total
	}

	if customerID != nil && c.MaxUsagePerCustomer != nil {
		byCustomer, err := s.usage.CountByCouponAndCustomer(c.ID, *customerID)
		if err != nil {
			return snapshot, fmt.Errorf("failed to count customer usage: %w", err)
		}
		snapshot.ByCustomer = byCustomer
	}

	return snapshot, nil
}

// reasonMessage maps each eligibility reason to a distinct user-facing
// message so callers can branch on the string they surface.
func reasonMessage(reason coupon.Reason, c *models.Coupon) string {
	switch reason {
	case coupon.ReasonInactive:
		return "This coupon is not active"
	case coupon.ReasonNotYetActive:
		return "This coupon is not yet valid"
	case coupon.ReasonExpired:
		return "This coupon has expired"
	case coupon.ReasonBelowMinimumOrder:
		if c.MinOrderAmount != nil {
			return fmt.Sprintf("Minimum order amount of %s required", c.MinOrderAmount.StringFixed(2))
		}
		return "Minimum order amount not met"
	case coupon.ReasonUsageLimitReached:
		return "Coupon usage limit reached"
	case coupon.ReasonCustomerLimitReached:
		return "You have already used this coupon"
	case coupon.ReasonCustomerNotEligible:
		return "This coupon is not available for your account"
	case coupon.ReasonNoMatchingItems:
		return "This coupon does not apply to the items in your cart"
	default:
		return genericNotFound
	}
}
