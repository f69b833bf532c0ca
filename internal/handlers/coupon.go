package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-coupons/internal/database"
	"storefront-coupons/internal/middleware"
	"storefront-coupons/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// CouponHandler serves the back-office coupon CRUD surface. It is
// plumbing over the coupon store; the validation and redemption logic
// lives in the engine and the committer.
type CouponHandler struct {
	couponQueries *database.CouponQueries
	usageQueries  *database.UsageQueries
}

func NewCouponHandler(couponQueries *database.CouponQueries, usageQueries *database.UsageQueries) *CouponHandler {
	return &CouponHandler{
		couponQueries: couponQueries,
		usageQueries:  usageQueries,
	}
}

// CreateCoupon creates a new coupon (admin only).
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req models.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant not resolved"})
		return
	}

	if msg := validateCouponRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Normalize code to uppercase
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	created, err := h.couponQueries.CreateCoupon(tenantID, &req, userID.(uuid.UUID))
	if err != nil {
		if errors.Is(err, database.ErrCouponExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Coupon code already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create coupon"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListCoupons lists the tenant's coupons (admin only).
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant not resolved"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var activeFilter *bool
	if active := c.Query("active"); active != "" {
		if parsed, err := strconv.ParseBool(active); err == nil {
			activeFilter = &parsed
		}
	}

	list, err := h.couponQueries.ListCoupons(tenantID, page, limit, activeFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list coupons"})
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetCoupon fetches one coupon with its targeting sets (admin only).
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	coupon, err := h.couponQueries.GetCouponByID(tenantID, id)
	if err != nil {
		if errors.Is(err, database.ErrCouponNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get coupon"})
		return
	}

	c.JSON(http.StatusOK, coupon)
}

// UpdateCoupon updates a coupon (admin only).
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req models.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if msg := validateCouponRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	updated, err := h.couponQueries.UpdateCoupon(tenantID, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrCouponNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
		case errors.Is(err, database.ErrCouponExists):
			c.JSON(http.StatusConflict, gin.H{"error": "Coupon code already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coupon"})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// SetCouponActive toggles a coupon without touching the rest of the
// record (admin only).
func (h *CouponHandler) SetCouponActive(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.couponQueries.SetActive(tenantID, id, req.IsActive); err != nil {
		if errors.Is(err, database.ErrCouponNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coupon"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon updated"})
}

// DeleteCoupon hard-deletes a coupon, unless it has ledger rows: a
// redeemed coupon can only be deactivated (admin only).
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	err := h.couponQueries.DeleteCoupon(tenantID, id)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrCouponNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
		case errors.Is(err, database.ErrCouponInUse):
			c.JSON(http.StatusConflict, gin.H{"error": "Coupon has been redeemed and cannot be deleted; deactivate it instead"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete coupon"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
}

// GetCouponStats returns the ledger aggregation for one coupon (admin only).
func (h *CouponHandler) GetCouponStats(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	recentLimit, _ := strconv.Atoi(c.DefaultQuery("recent", "10"))
	if recentLimit < 1 || recentLimit > 100 {
		recentLimit = 10
	}

	stats, err := h.usageQueries.GetStats(tenantID, id, recentLimit)
	if err != nil {
		if errors.Is(err, database.ErrCouponNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get coupon stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *CouponHandler) tenantAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant not resolved"})
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coupon id"})
		return uuid.Nil, uuid.Nil, false
	}

	return tenantID, id, true
}

// validateCouponRequest covers the numeric checks gin's binding tags
// cannot express for decimal fields. Returns an empty string when valid.
func validateCouponRequest(req *models.CouponRequest) string {
	if req.DiscountValue.IsNegative() {
		return "Discount value cannot be negative"
	}
	if req.DiscountType == models.DiscountTypePercentage && req.DiscountValue.GreaterThan(oneHundred) {
		return "Percentage discount cannot exceed 100%"
	}
	if req.MinOrderAmount != nil && req.MinOrderAmount.IsNegative() {
		return "Minimum order amount cannot be negative"
	}
	if req.MaxDiscountAmount != nil && req.MaxDiscountAmount.IsNegative() {
		return "Maximum discount amount cannot be negative"
	}
	if req.MaxUsageCount != nil && *req.MaxUsageCount < 1 {
		return "Maximum usage count must be at least 1"
	}
	if req.MaxUsagePerCustomer != nil && *req.MaxUsagePerCustomer < 1 {
		return "Maximum usage per customer must be at least 1"
	}
	if req.ValidFrom != nil && req.ValidTo != nil && req.ValidTo.Before(*req.ValidFrom) {
		return "End date must be after start date"
	}
	if !req.AppliesToAllProducts && len(req.ApplicableProductIDs) == 0 && len(req.ApplicableCategoryIDs) == 0 {
		return "Coupon must apply to all products or name applicable products or categories"
	}
	if !req.AppliesToAllCustomers && len(req.ApplicableCustomerIDs) == 0 {
		return "Coupon must apply to all customers or name applicable customers"
	}
	return ""
}
