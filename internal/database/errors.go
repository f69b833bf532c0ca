package database

import "errors"

// Domain errors surfaced by the coupon store and the redemption committer.
var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrCouponExists   = errors.New("coupon code already exists")
	// ErrCouponInUse guards hard deletion: a coupon with ledger rows can
	// only be deactivated, never deleted, or the ledger would hold
	// orphaned references.
	ErrCouponInUse = errors.New("coupon has recorded redemptions")

	ErrCouponInactive       = errors.New("coupon is not active")
	ErrCouponNotYetActive   = errors.New("coupon is not yet valid")
	ErrCouponExpired        = errors.New("coupon has expired")
	ErrUsageLimitExceeded   = errors.New("coupon usage limit exceeded")
	ErrCustomerLimitReached = errors.New("per-customer usage limit exceeded")
	ErrDuplicateRedemption  = errors.New("order already redeemed this coupon")

	ErrUserNotFound = errors.New("user not found")
)
