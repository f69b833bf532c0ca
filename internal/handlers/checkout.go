package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-coupons/internal/database"
	"storefront-coupons/internal/middleware"
	"storefront-coupons/internal/models"
)

// CouponValidator is the read-only validation path (interface to allow
// mocking in handler tests).
type CouponValidator interface {
	ValidateCoupon(tenantID uuid.UUID, code string, customerID *uuid.UUID, cartSubtotal decimal.Decimal, lines []models.CartLine) (*models.CouponValidationResult, error)
}

// RedemptionCommitter consumes coupon quota at order completion.
type RedemptionCommitter interface {
	CommitRedemption(ctx context.Context, tenantID, couponID, orderID uuid.UUID, customerID *uuid.UUID, sessionID string, discountAmount decimal.Decimal) (*models.CouponUsage, error)
}

// CheckoutHandler serves the storefront coupon endpoints: the repeatable
// cart-preview validation and the one-shot redemption commit.
type CheckoutHandler struct {
	validator     CouponValidator
	committer     RedemptionCommitter
	commitTimeout time.Duration
}

func NewCheckoutHandler(validator CouponValidator, committer RedemptionCommitter, commitTimeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		validator:     validator,
		committer:     committer,
		commitTimeout: commitTimeout,
	}
}

// ValidateCoupon checks a code against the posted cart state. It is
// called again after every cart change, so it always answers 200 with a
// validation result rather than an HTTP error for ineligible coupons.
func (h *CheckoutHandler) ValidateCoupon(c *gin.Context) {
	var req models.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant not resolved"})
		return
	}

	result, err := h.validator.ValidateCoupon(tenantID, req.Code, req.CustomerID, req.CartSubtotal, req.Lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate coupon"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RedeemCoupon durably consumes one unit of the coupon's quota for a
// completed order. The posted discount amount is the figure the customer
// was shown; it is recorded, not recomputed. On a race for the last
// remaining unit exactly one caller succeeds; the loser gets a conflict
// and decides its own remediation (retry without the coupon, or fail the
// order).
func (h *CheckoutHandler) RedeemCoupon(c *gin.Context) {
	var req models.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.DiscountAmount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Discount amount cannot be negative"})
		return
	}

	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant not resolved"})
		return
	}

	sessionID := middleware.GetSessionID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.commitTimeout)
	defer cancel()

	usage, err := h.committer.CommitRedemption(ctx, tenantID, req.CouponID, req.OrderID, req.CustomerID, sessionID, req.DiscountAmount)
	if err != nil {
		status, reason := commitFailure(err)
		if reason == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit redemption"})
			return
		}
		c.JSON(status, models.CommitResult{Success: false, Reason: reason})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"redemption": usage,
	})
}

// commitFailure maps committer errors to a status and a stable reason
// string. An empty reason means an unexpected internal failure.
func commitFailure(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrCouponNotFound):
		return http.StatusNotFound, "coupon_not_found"
	case errors.Is(err, database.ErrCouponInactive):
		return http.StatusConflict, "coupon_inactive"
	case errors.Is(err, database.ErrCouponNotYetActive):
		return http.StatusConflict, "coupon_not_yet_active"
	case errors.Is(err, database.ErrCouponExpired):
		return http.StatusConflict, "coupon_expired"
	case errors.Is(err, database.ErrUsageLimitExceeded):
		return http.StatusConflict, "usage_limit_exceeded"
	case errors.Is(err, database.ErrCustomerLimitReached):
		return http.StatusConflict, "customer_limit_exceeded"
	case errors.Is(err, database.ErrDuplicateRedemption):
		return http.StatusConflict, "duplicate_redemption"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "commit_timeout"
	default:
		return 0, ""
	}
}
