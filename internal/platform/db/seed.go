package db

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/platform/config"
)

// Seed bootstraps the first admin account so a fresh deployment can log in.
// It is a no-op when any user already exists or when no admin credentials
// are configured.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		slog.Warn("no users exist and ADMIN_EMAIL/ADMIN_PASSWORD are unset, skipping admin bootstrap")
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, first_name, last_name, role)
    VALUES ($1, $2, 'System', 'Admin', $3)
  `, cfg.AdminEmail, hash, auth.RoleAdmin)
	if err != nil {
		return err
	}
	slog.Info("bootstrapped admin account", "email", cfg.AdminEmail)
	return nil
}
