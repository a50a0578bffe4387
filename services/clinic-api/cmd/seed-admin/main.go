// Command seed-admin creates the first admin account directly in the
// database. Register on the API is admin-guarded, so a fresh deployment needs
// this once.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jpcarranza/clinicagenda/libs/db"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/model"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/storage"
)

func main() {
	var (
		email     = flag.String("email", getenv("ADMIN_EMAIL", ""), "admin email")
		password  = flag.String("password", getenv("ADMIN_PASSWORD", ""), "admin password")
		firstName = flag.String("first-name", getenv("ADMIN_FIRST_NAME", "Admin"), "first name")
		lastName  = flag.String("last-name", getenv("ADMIN_LAST_NAME", "User"), "last name")
		dbURL     = flag.String("database-url", getenv("DATABASE_URL", ""), "postgres connection string")
	)
	flag.Parse()

	if strings.TrimSpace(*dbURL) == "" {
		fatal("DATABASE_URL is required")
	}
	if !strings.Contains(*email, "@") {
		fatal("a valid -email is required")
	}
	if len(*password) < 8 {
		fatal("-password must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, *dbURL)
	if err != nil {
		fatal(err.Error())
	}
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fatal(err.Error())
	}

	admin, err := storage.NewAdminRepository(pool).Create(ctx, model.Admin{
		Email:        *email,
		PasswordHash: string(hash),
		FirstName:    *firstName,
		LastName:     *lastName,
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
	})
	if err != nil {
		fatal(err.Error())
	}

	fmt.Printf("created admin %s (%s)\n", admin.Email, admin.ID)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "seed-admin:", msg)
	os.Exit(1)
}
