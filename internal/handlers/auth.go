package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-coupons/internal/auth"
	"storefront-coupons/internal/database"
	"storefront-coupons/internal/middleware"
	"storefront-coupons/internal/models"
)

type AuthHandler struct {
	userQueries *database.UserQueries
	jwtSecret   string
}

func NewAuthHandler(db *sql.DB, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userQueries: database.NewUserQueries(db),
		jwtSecret:   jwtSecret,
	}
}

// Login authenticates a back-office user within the request's tenant.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant not resolved"})
		return
	}

	user, err := h.userQueries.GetUserByEmail(tenantID, req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := auth.CheckPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	accessToken, err := auth.GenerateAccessToken(user.ID, user.TenantID, user.Email, user.Role, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		User:        *user,
		AccessToken: accessToken,
	})
}

// Me returns the authenticated user's identity claims.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	tenantID, _ := middleware.GetTenantID(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID.(uuid.UUID),
		"tenant_id": tenantID,
		"email":     c.GetString("user_email"),
		"role":      c.GetString("user_role"),
	})
}
