// Command create-admin provisions an ADMIN account directly in the database.
// Meant for bootstrapping a fresh deployment before any admin can log in.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/facetlabs/facet/internal/domain/users"
	"github.com/facetlabs/facet/internal/migrations"
	"github.com/facetlabs/facet/pkg/auth"
	pkgdb "github.com/facetlabs/facet/pkg/database"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	name := flag.String("name", "Administrator", "display name")
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password (required, min 8 chars)")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Error("DATABASE_URL is not set")
		os.Exit(1)
	}

	pool, err := pkgdb.Connect(ctx, dbURL)
	if err != nil {
		logger.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrations.Up(ctx, pool); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		os.Exit(1)
	}

	now := time.Now()
	query := `
		INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		ON CONFLICT (email) DO NOTHING
	`
	tag, err := pool.Exec(ctx, query, uuid.New(), *name, *email, hash, users.RoleAdmin, now)
	if err != nil {
		logger.Error("Failed to insert admin", "error", err)
		os.Exit(1)
	}
	if tag.RowsAffected() == 0 {
		logger.Warn("User already exists, nothing to do", "email", *email)
		return
	}

	logger.Info("Admin created", "email", *email)
}
