package database

import (
	"database/sql"
	"fmt"
)

func Migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE OR REPLACE FUNCTION update_updated_at_column()
		RETURNS TRIGGER AS $$
		BEGIN
			NEW.updated_at = CURRENT_TIMESTAMP;
			RETURN NEW;
		END;
		$$ language 'plpgsql';`,
		`DROP TRIGGER IF EXISTS update_tenants_updated_at ON tenants;`,
		`CREATE TRIGGER update_tenants_updated_at
		BEFORE UPDATE ON tenants
		FOR EACH ROW
		EXECUTE FUNCTION update_updated_at_column();`,
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(50) NOT NULL DEFAULT 'client',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(tenant_id, email)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_tenant_email ON users(tenant_id, email);`,
		`DROP TRIGGER IF EXISTS update_users_updated_at ON users;`,
		`CREATE TRIGGER update_users_updated_at
		BEFORE UPDATE ON users
		FOR EACH ROW
		EXECUTE FUNCTION update_updated_at_column();`,
		`CREATE TABLE IF NOT EXISTS coupons (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			code VARCHAR(50) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			discount_type VARCHAR(50) NOT NULL,
			discount_value NUMERIC(20,4) NOT NULL,
			currency CHAR(3) NOT NULL DEFAULT 'USD',
			min_order_amount NUMERIC(20,4),
			max_discount_amount NUMERIC(20,4),
			max_usage_count INTEGER,
			max_usage_per_customer INTEGER,
			valid_from TIMESTAMP WITH TIME ZONE,
			valid_to TIMESTAMP WITH TIME ZONE,
			applies_to_all_products BOOLEAN NOT NULL DEFAULT true,
			applies_to_all_customers BOOLEAN NOT NULL DEFAULT true,
			is_active BOOLEAN NOT NULL DEFAULT true,
			usage_count INTEGER NOT NULL DEFAULT 0,
			created_by UUID REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT chk_coupons_discount_value CHECK (discount_value >= 0)
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_tenant_code ON coupons(tenant_id, UPPER(code));`,
		`CREATE INDEX IF NOT EXISTS idx_coupons_tenant_active ON coupons(tenant_id, is_active);`,
		`DROP TRIGGER IF EXISTS update_coupons_updated_at ON coupons;`,
		`CREATE TRIGGER update_coupons_updated_at
		BEFORE UPDATE ON coupons
		FOR EACH ROW
		EXECUTE FUNCTION update_updated_at_column();`,
		`CREATE TABLE IF NOT EXISTS coupon_products (
			coupon_id UUID NOT NULL REFERENCES coupons(id) ON DELETE CASCADE,
			product_id UUID NOT NULL,
			PRIMARY KEY (coupon_id, product_id)
		);`,
		`CREATE TABLE IF NOT EXISTS coupon_categories (
			coupon_id UUID NOT NULL REFERENCES coupons(id) ON DELETE CASCADE,
			category_id UUID NOT NULL,
			PRIMARY KEY (coupon_id, category_id)
		);`,
		`CREATE TABLE IF NOT EXISTS coupon_excluded_products (
			coupon_id UUID NOT NULL REFERENCES coupons(id) ON DELETE CASCADE,
			product_id UUID NOT NULL,
			PRIMARY KEY (coupon_id, product_id)
		);`,
		`CREATE TABLE IF NOT EXISTS coupon_customers (
			coupon_id UUID NOT NULL REFERENCES coupons(id) ON DELETE CASCADE,
			customer_id UUID NOT NULL,
			PRIMARY KEY (coupon_id, customer_id)
		);`,
		`CREATE TABLE IF NOT EXISTS coupon_usage (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			coupon_id UUID NOT NULL REFERENCES coupons(id),
			order_id UUID NOT NULL,
			customer_id UUID,
			session_id VARCHAR(128) NOT NULL DEFAULT '',
			discount_amount NUMERIC(20,4) NOT NULL,
			used_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(coupon_id, order_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_coupon_usage_coupon ON coupon_usage(coupon_id);`,
		`CREATE INDEX IF NOT EXISTS idx_coupon_usage_coupon_customer ON coupon_usage(coupon_id, customer_id);`,
		`CREATE INDEX IF NOT EXISTS idx_coupon_usage_used_at ON coupon_usage(used_at);`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
