package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"marketplace.backend/internal/config"
	"marketplace.backend/internal/domain/entities"
	domainerrors "marketplace.backend/internal/domain/errors"
	domainrepo "marketplace.backend/internal/domain/repositories"
	"marketplace.backend/internal/infrastructure/datasources/postgres"
	"marketplace.backend/internal/infrastructure/repositories"
	"marketplace.backend/pkg/crypto"
)

var openAdminUserDB = postgres.OpenGorm

var openAdminSQLDB = func(db *gorm.DB) (io.Closer, error) {
	return db.DB()
}

type adminUserDeps struct {
	loadEnv      func() error
	loadCfg      func() *config.Config
	prepare      func(cfg *config.Config) (domainrepo.UserRepository, io.Closer, error)
	genPassword  func() (string, error)
	hashPassword func(string) (string, error)
	out          io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultAdminUserDeps() adminUserDeps {
	return adminUserDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) (domainrepo.UserRepository, io.Closer, error) {
			db, err := openAdminUserDB(cfg.Database)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}
			sqlDB, err := openAdminSQLDB(db)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}
			return repositories.NewUserRepository(db), sqlDB, nil
		},
		genPassword:  crypto.GenerateTemporaryPassword,
		hashPassword: crypto.HashPassword,
		out:          os.Stdout,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("--email is required")
	}
	if !strings.Contains(email, "@") {
		return "", fmt.Errorf("invalid email %q", email)
	}
	return email, nil
}

// runAdminUser creates an admin account, or promotes an existing account to admin.
func runAdminUser(args []string, deps adminUserDeps) error {
	def := defaultAdminUserDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.genPassword == nil {
		deps.genPassword = def.genPassword
	}
	if deps.hashPassword == nil {
		deps.hashPassword = def.hashPassword
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("admin-user", flag.ContinueOnError)
	emailFlag := fs.String("email", "", "admin email (required)")
	nameFlag := fs.String("name", "Administrator", "display name for a new account")
	passwordFlag := fs.String("password", "", "password for a new account (generated when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	email, err := normalizeEmail(*emailFlag)
	if err != nil {
		return err
	}
	if *passwordFlag != "" && len(*passwordFlag) < crypto.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", crypto.MinPasswordLength)
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := deps.loadCfg()
	users, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	ctx := context.Background()
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == entities.UserRoleAdmin {
			_, _ = fmt.Fprintf(deps.out, "User %s is already ADMIN\n", email)
			return nil
		}
		if err := users.UpdateRole(ctx, existing.ID, entities.UserRoleAdmin, entities.UserStatusActive); err != nil {
			return fmt.Errorf("failed to promote user %s: %w", email, err)
		}
		_, _ = fmt.Fprintf(deps.out, "Promoted existing user to ADMIN\nuser_id=%s\n", existing.ID)
		return nil
	case !errors.Is(err, domainerrors.ErrNotFound):
		return fmt.Errorf("failed to load user %s: %w", email, err)
	}

	password := *passwordFlag
	generated := false
	if password == "" {
		if password, err = deps.genPassword(); err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
		generated = true
	}
	hash, err := deps.hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Email:        email,
		Name:         strings.TrimSpace(*nameFlag),
		PasswordHash: hash,
		Role:         entities.UserRoleAdmin,
		Status:       entities.UserStatusActive,
	}
	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed creating admin user: %w", err)
	}

	_, _ = fmt.Fprintln(deps.out, "Created ADMIN user and stored in DB")
	_, _ = fmt.Fprintf(deps.out, "user_id=%s\n", user.ID)
	_, _ = fmt.Fprintf(deps.out, "email=%s\n", user.Email)
	if generated {
		_, _ = fmt.Fprintf(deps.out, "PASSWORD=%s\n", password)
	}
	return nil
}

func main() {
	if err := runAdminUser(os.Args[1:], defaultAdminUserDeps()); err != nil {
		log.Fatal(err)
	}
}
