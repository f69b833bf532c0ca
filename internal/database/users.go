package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"storefront-coupons/internal/models"
)

type UserQueries struct {
	db *sql.DB
}

func NewUserQueries(db *sql.DB) *UserQueries {
	return &UserQueries{db: db}
}

func (q *UserQueries) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (tenant_id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := q.db.QueryRow(query, user.TenantID, user.Email, user.PasswordHash, user.Role).Scan(
		&user.ID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (q *UserQueries) GetUserByEmail(tenantID uuid.UUID, email string) (*models.User, error) {
	query := `
		SELECT id, tenant_id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE tenant_id = $1 AND email = $2
	`
	user := &models.User{}
	err := q.db.QueryRow(query, tenantID, email).Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (q *UserQueries) EmailExists(tenantID uuid.UUID, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM users WHERE tenant_id = $1 AND email = $2)",
		tenantID, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

type TenantQueries struct {
	db *sql.DB
}

func NewTenantQueries(db *sql.DB) *TenantQueries {
	return &TenantQueries{db: db}
}

func (q *TenantQueries) CreateTenant(tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (name, status)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	if tenant.Status == "" {
		tenant.Status = models.TenantStatusActive
	}
	err := q.db.QueryRow(query, tenant.Name, tenant.Status).Scan(
		&tenant.ID,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (q *TenantQueries) GetTenantByID(id uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT id, name, status, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	tenant := &models.Tenant{}
	err := q.db.QueryRow(query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Status,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tenant not found")
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}
