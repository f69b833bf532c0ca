package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-coupons/internal/models"
)

// UsageQueries reads and appends the redemption ledger. The ledger is the
// source of truth for usage limits; the usage_count column on coupons is a
// cache refreshed in the same transaction as each ledger insert.
type UsageQueries struct {
	db *sql.DB
}

func NewUsageQueries(db *sql.DB) *UsageQueries {
	return &UsageQueries{db: db}
}

// CountByCoupon returns the ledger count of redemptions for a coupon.
func (q *UsageQueries) CountByCoupon(couponID uuid.UUID) (int, error) {
	var count int
	err := q.db.QueryRow(
		"SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = $1", couponID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count coupon usage: %w", err)
	}
	return count, nil
}

// CountByCouponAndCustomer returns the ledger count for one customer.
func (q *UsageQueries) CountByCouponAndCustomer(couponID, customerID uuid.UUID) (int, error) {
	var count int
	err := q.db.QueryRow(
		"SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = $1 AND customer_id = $2",
		couponID, customerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count customer usage: %w", err)
	}
	return count, nil
}

// CommitRedemption durably consumes one unit of the coupon's quota. It
// locks the coupon row, re-checks active state and validity window,
// re-reads the ledger counts, appends the ledger row with the discount
// amount the customer was shown, and bumps the cached counter, all in one
// transaction. Two concurrent commits against the last remaining unit
// serialize on the row lock, so exactly one succeeds.
//
// The discount amount is recorded as validated, never recomputed, so the
// customer is never charged against a different figure after payment.
func (q *UsageQueries) CommitRedemption(ctx context.Context, tenantID uuid.UUID, couponID, orderID uuid.UUID, customerID *uuid.UUID, sessionID string, discountAmount decimal.Decimal) (*models.CouponUsage, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		isActive            bool
		validFrom, validTo  *time.Time
		maxUsage, maxPerCus *int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT is_active, valid_from, valid_to, max_usage_count, max_usage_per_customer
		 FROM coupons WHERE tenant_id = $1 AND id = $2
		 FOR UPDATE`,
		tenantID, couponID,
	).Scan(&isActive, &validFrom, &validTo, &maxUsage, &maxPerCus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to lock coupon: %w", err)
	}

	// Validation is advisory; the state may have changed since the
	// discount was shown, so everything time- and limit-related is
	// re-checked here.
	now := time.Now()
	if !isActive {
		return nil, ErrCouponInactive
	}
	if validFrom != nil && now.Before(*validFrom) {
		return nil, ErrCouponNotYetActive
	}
	if validTo != nil && now.After(*validTo) {
		return nil, ErrCouponExpired
	}

	if maxUsage != nil {
		var total int
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = $1", couponID,
		).Scan(&total)
		if err != nil {
			return nil, fmt.Errorf("failed to count coupon usage: %w", err)
		}
		if total+1 > *maxUsage {
			return nil, ErrUsageLimitExceeded
		}
	}

	// Guests cannot be tracked individually; only the global cap applies.
	if customerID != nil && maxPerCus != nil {
		var byCustomer int
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = $1 AND customer_id = $2",
			couponID, *customerID,
		).Scan(&byCustomer)
		if err != nil {
			return nil, fmt.Errorf("failed to count customer usage: %w", err)
		}
		if byCustomer+1 > *maxPerCus {
			return nil, ErrCustomerLimitReached
		}
	}

	usage := &models.CouponUsage{
		TenantID:       tenantID,
		CouponID:       couponID,
		OrderID:        orderID,
		CustomerID:     customerID,
		SessionID:      sessionID,
		DiscountAmount: discountAmount,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO coupon_usage (tenant_id, coupon_id, order_id, customer_id, session_id, discount_amount)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, used_at`,
		tenantID, couponID, orderID, customerID, sessionID, discountAmount,
	).Scan(&usage.ID, &usage.UsedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateRedemption
		}
		return nil, fmt.Errorf("failed to append ledger row: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE coupons SET usage_count = usage_count + 1 WHERE id = $1", couponID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to increment usage count: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return usage, nil
}

// GetStats aggregates the ledger for one coupon: totals, distinct
// customers, and the most recent redemptions.
func (q *UsageQueries) GetStats(tenantID, couponID uuid.UUID, recentLimit int) (*models.CouponStats, error) {
	var exists bool
	err := q.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM coupons WHERE tenant_id = $1 AND id = $2)",
		tenantID, couponID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check coupon existence: %w", err)
	}
	if !exists {
		return nil, ErrCouponNotFound
	}

	stats := &models.CouponStats{CouponID: couponID}
	err = q.db.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT customer_id), COALESCE(SUM(discount_amount), 0)
		 FROM coupon_usage WHERE coupon_id = $1`,
		couponID,
	).Scan(&stats.UsageCount, &stats.UniqueCustomers, &stats.TotalDiscount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate coupon usage: %w", err)
	}

	if stats.UsageCount > 0 {
		// Same rounding mode as the calculator.
		stats.AverageDiscount = stats.TotalDiscount.Div(decimal.NewFromInt(int64(stats.UsageCount))).Round(2)
	} else {
		stats.AverageDiscount = decimal.Zero
	}

	rows, err := q.db.Query(
		`SELECT id, tenant_id, coupon_id, order_id, customer_id, session_id, discount_amount, used_at
		 FROM coupon_usage WHERE coupon_id = $1
		 ORDER BY used_at DESC
		 LIMIT $2`,
		couponID, recentLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent redemptions: %w", err)
	}
	defer rows.Close()

	stats.RecentRedemptions = []models.CouponUsage{}
	for rows.Next() {
		var u models.CouponUsage
		err := rows.Scan(&u.ID, &u.TenantID, &u.CouponID, &u.OrderID, &u.CustomerID, &u.SessionID, &u.DiscountAmount, &u.UsedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		stats.RecentRedemptions = append(stats.RecentRedemptions, u)
	}
	return stats, rows.Err()
}
