package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/term"

	"storefront-coupons/internal/auth"
	"storefront-coupons/internal/config"
	"storefront-coupons/internal/database"
	"storefront-coupons/internal/models"
)

func main() {
	fmt.Println("Creating Tenant Admin User")
	fmt.Println("==========================")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Run migrations to ensure database is up to date
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	userQueries := database.NewUserQueries(db)
	tenantQueries := database.NewTenantQueries(db)
	reader := bufio.NewReader(os.Stdin)

	// Resolve the tenant; an empty answer creates a new one.
	fmt.Print("Enter tenant id (blank to create a new tenant): ")
	tenantInput, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal("Failed to read tenant id:", err)
	}
	tenantInput = strings.TrimSpace(tenantInput)

	var tenantID uuid.UUID
	if tenantInput == "" {
		fmt.Print("Enter new tenant name: ")
		name, err := reader.ReadString('\n')
		if err != nil {
			log.Fatal("Failed to read tenant name:", err)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			log.Fatal("Tenant name cannot be empty")
		}

		tenant := &models.Tenant{Name: name}
		if err := tenantQueries.CreateTenant(tenant); err != nil {
			log.Fatal("Failed to create tenant:", err)
		}
		tenantID = tenant.ID
		fmt.Printf("Created tenant %s (%s)\n", tenant.Name, tenant.ID)
	} else {
		tenantID, err = uuid.Parse(tenantInput)
		if err != nil {
			log.Fatal("Invalid tenant id:", err)
		}
		if _, err := tenantQueries.GetTenantByID(tenantID); err != nil {
			log.Fatal("Failed to resolve tenant:", err)
		}
	}

	// Get email
	fmt.Print("Enter admin email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal("Failed to read email:", err)
	}
	email = strings.TrimSpace(email)

	if email == "" {
		log.Fatal("Email cannot be empty")
	}

	exists, err := userQueries.EmailExists(tenantID, email)
	if err != nil {
		log.Fatal("Failed to check email:", err)
	}
	if exists {
		log.Fatalf("User with email %s already exists for this tenant", email)
	}

	// Get password
	fmt.Print("Enter admin password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatal("Failed to read password:", err)
	}
	password := string(passwordBytes)
	fmt.Println() // New line after password input

	if len(password) < 6 {
		log.Fatal("Password must be at least 6 characters long")
	}

	// Confirm password
	fmt.Print("Confirm admin password: ")
	confirmPasswordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatal("Failed to read password confirmation:", err)
	}
	confirmPassword := string(confirmPasswordBytes)
	fmt.Println() // New line after password input

	if password != confirmPassword {
		log.Fatal("Passwords do not match")
	}

	// Hash password
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	// Create admin user
	user := &models.User{
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
	}

	if err := userQueries.CreateUser(user); err != nil {
		log.Fatal("Failed to create admin user:", err)
	}

	fmt.Printf("Successfully created admin user: %s\n", email)
	fmt.Printf("User ID: %s\n", user.ID)
	fmt.Printf("Created at: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
}
