package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"storefront-coupons/internal/models"
)

const couponColumns = `id, tenant_id, code, name, description, discount_type, discount_value,
	 currency, min_order_amount, max_discount_amount, max_usage_count, max_usage_per_customer,
	 valid_from, valid_to, applies_to_all_products, applies_to_all_customers, is_active,
	 usage_count, created_by, created_at, updated_at`

type CouponQueries struct {
	db *sql.DB
}

func NewCouponQueries(db *sql.DB) *CouponQueries {
	return &CouponQueries{db: db}
}

// GetCouponByCode looks up a coupon by code within one tenant,
// case-insensitively. A code belonging to another tenant is
// indistinguishable from a code that never existed.
func (q *CouponQueries) GetCouponByCode(tenantID uuid.UUID, code string) (*models.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE tenant_id = $1 AND UPPER(code) = UPPER($2)`, couponColumns)

	c, err := scanCoupon(q.db.QueryRow(query, tenantID, code))
	if err != nil {
		return nil, err
	}
	if err := q.loadTargeting(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCouponByID fetches one coupon scoped to a tenant.
func (q *CouponQueries) GetCouponByID(tenantID, id uuid.UUID) (*models.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE tenant_id = $1 AND id = $2`, couponColumns)

	c, err := scanCoupon(q.db.QueryRow(query, tenantID, id))
	if err != nil {
		return nil, err
	}
	if err := q.loadTargeting(c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCoupon inserts the coupon row and its targeting sets in one
// transaction. The code is stored as given; uniqueness is enforced
// case-insensitively per tenant.
func (q *CouponQueries) CreateCoupon(tenantID uuid.UUID, req *models.CouponRequest, createdBy uuid.UUID) (*models.Coupon, error) {
	tx, err := q.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO coupons (tenant_id, code, name, description, discount_type,
		 discount_value, currency, min_order_amount, max_discount_amount, max_usage_count,
		 max_usage_per_customer, valid_from, valid_to, applies_to_all_products,
		 applies_to_all_customers, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING %s`, couponColumns)

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	c, err := scanCoupon(tx.QueryRow(query,
		tenantID, req.Code, req.Name, req.Description, req.DiscountType,
		req.DiscountValue, currency, req.MinOrderAmount, req.MaxDiscountAmount, req.MaxUsageCount,
		req.MaxUsagePerCustomer, req.ValidFrom, req.ValidTo, req.AppliesToAllProducts,
		req.AppliesToAllCustomers, req.IsActive, createdBy,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCouponExists
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	if err := replaceTargeting(tx, c.ID, req); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.ApplicableProductIDs = req.ApplicableProductIDs
	c.ApplicableCategoryIDs = req.ApplicableCategoryIDs
	c.ExcludedProductIDs = req.ExcludedProductIDs
	c.ApplicableCustomerIDs = req.ApplicableCustomerIDs
	return c, nil
}

// UpdateCoupon rewrites the coupon row and replaces its targeting sets.
// The cached usage_count is never touched here; only the committer moves it.
func (q *CouponQueries) UpdateCoupon(tenantID, id uuid.UUID, req *models.CouponRequest) (*models.Coupon, error) {
	tx, err := q.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`UPDATE coupons SET
		 code = $1, name = $2, description = $3, discount_type = $4, discount_value = $5,
		 currency = $6, min_order_amount = $7, max_discount_amount = $8, max_usage_count = $9,
		 max_usage_per_customer = $10, valid_from = $11, valid_to = $12,
		 applies_to_all_products = $13, applies_to_all_customers = $14, is_active = $15
		 WHERE tenant_id = $16 AND id = $17
		 RETURNING %s`, couponColumns)

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	c, err := scanCoupon(tx.QueryRow(query,
		req.Code, req.Name, req.Description, req.DiscountType, req.DiscountValue,
		currency, req.MinOrderAmount, req.MaxDiscountAmount, req.MaxUsageCount,
		req.MaxUsagePerCustomer, req.ValidFrom, req.ValidTo,
		req.AppliesToAllProducts, req.AppliesToAllCustomers, req.IsActive,
		tenantID, id,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCouponExists
		}
		return nil, err
	}

	if err := clearTargeting(tx, c.ID); err != nil {
		return nil, err
	}
	if err := replaceTargeting(tx, c.ID, req); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.ApplicableProductIDs = req.ApplicableProductIDs
	c.ApplicableCategoryIDs = req.ApplicableCategoryIDs
	c.ExcludedProductIDs = req.ExcludedProductIDs
	c.ApplicableCustomerIDs = req.ApplicableCustomerIDs
	return c, nil
}

// DeleteCoupon hard-deletes a coupon that was never redeemed. A coupon
// with ledger rows returns ErrCouponInUse; deactivate it instead.
func (q *CouponQueries) DeleteCoupon(tenantID, id uuid.UUID) error {
	var used int
	err := q.db.QueryRow(
		"SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = $1", id,
	).Scan(&used)
	if err != nil {
		return fmt.Errorf("failed to check coupon usage: %w", err)
	}
	if used > 0 {
		return ErrCouponInUse
	}

	result, err := q.db.Exec("DELETE FROM coupons WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCouponNotFound
	}
	return nil
}

// ListCoupons gets a paginated list of a tenant's coupons.
func (q *CouponQueries) ListCoupons(tenantID uuid.UUID, page, limit int, activeFilter *bool) (*models.CouponListResponse, error) {
	offset := (page - 1) * limit

	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	argIndex := 2

	if activeFilter != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *activeFilter)
		argIndex++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM coupons %s", whereClause)
	var total int
	if err := q.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count coupons: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM coupons %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, couponColumns, whereClause, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := q.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []models.CouponResponse{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, buildCouponResponse(c))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coupons: %w", err)
	}

	return &models.CouponListResponse{
		Coupons: coupons,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

// SetActive toggles a coupon without rewriting the rest of the record.
func (q *CouponQueries) SetActive(tenantID, id uuid.UUID, active bool) error {
	result, err := q.db.Exec(
		"UPDATE coupons SET is_active = $1 WHERE tenant_id = $2 AND id = $3",
		active, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCouponNotFound
	}
	return nil
}

// loadTargeting fills the coupon's applicability sets.
func (q *CouponQueries) loadTargeting(c *models.Coupon) error {
	sets := []struct {
		query string
		dest  *[]uuid.UUID
	}{
		{"SELECT product_id FROM coupon_products WHERE coupon_id = $1", &c.ApplicableProductIDs},
		{"SELECT category_id FROM coupon_categories WHERE coupon_id = $1", &c.ApplicableCategoryIDs},
		{"SELECT product_id FROM coupon_excluded_products WHERE coupon_id = $1", &c.ExcludedProductIDs},
		{"SELECT customer_id FROM coupon_customers WHERE coupon_id = $1", &c.ApplicableCustomerIDs},
	}

	for _, set := range sets {
		ids, err := q.queryIDs(set.query, c.ID)
		if err != nil {
			return err
		}
		*set.dest = ids
	}
	return nil
}

func (q *CouponQueries) queryIDs(query string, couponID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(query, couponID)
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon targeting: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan targeting id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func clearTargeting(tx *sql.Tx, couponID uuid.UUID) error {
	tables := []string{"coupon_products", "coupon_categories", "coupon_excluded_products", "coupon_customers"}
	for _, table := range tables {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE coupon_id = $1", table), couponID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func replaceTargeting(tx *sql.Tx, couponID uuid.UUID, req *models.CouponRequest) error {
	inserts := []struct {
		query string
		ids   []uuid.UUID
	}{
		{"INSERT INTO coupon_products (coupon_id, product_id) VALUES ($1, $2)", req.ApplicableProductIDs},
		{"INSERT INTO coupon_categories (coupon_id, category_id) VALUES ($1, $2)", req.ApplicableCategoryIDs},
		{"INSERT INTO coupon_excluded_products (coupon_id, product_id) VALUES ($1, $2)", req.ExcludedProductIDs},
		{"INSERT INTO coupon_customers (coupon_id, customer_id) VALUES ($1, $2)", req.ApplicableCustomerIDs},
	}

	for _, ins := range inserts {
		for _, id := range ins.ids {
			if _, err := tx.Exec(ins.query, couponID, id); err != nil {
				return fmt.Errorf("failed to insert coupon targeting: %w", err)
			}
		}
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCoupon(row scanner) (*models.Coupon, error) {
	var c models.Coupon
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Code, &c.Name, &c.Description, &c.DiscountType, &c.DiscountValue,
		&c.Currency, &c.MinOrderAmount, &c.MaxDiscountAmount, &c.MaxUsageCount, &c.MaxUsagePerCustomer,
		&c.ValidFrom, &c.ValidTo, &c.AppliesToAllProducts, &c.AppliesToAllCustomers, &c.IsActive,
		&c.UsageCount, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to scan coupon: %w", err)
	}
	c.Currency = strings.TrimSpace(c.Currency)
	return &c, nil
}

func buildCouponResponse(c *models.Coupon) models.CouponResponse {
	now := time.Now()
	resp := models.CouponResponse{Coupon: *c}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		resp.IsExpired = true
	}
	if c.MaxUsageCount != nil && c.UsageCount >= *c.MaxUsageCount {
		resp.IsUsageExceeded = true
	}
	return resp
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
