package identity

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"grimoire/internal/pkg/errors"
	"grimoire/internal/platform/auth"
	"grimoire/internal/platform/config"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	schema := `
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		global_role TEXT NOT NULL DEFAULT 'user',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE refresh_tokens (
		id TEXT PRIMARY KEY,
		token TEXT UNIQUE NOT NULL,
		user_id TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		revoked INTEGER NOT NULL DEFAULT 0,
		revoked_at INTEGER,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}

func newTestService(db *sql.DB) *Service {
	tokenSvc := auth.NewTokenService(config.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: 15 * time.Minute,
	})
	return NewService(
		repositories.NewUserRepository(db),
		NewRepository(db),
		tokenSvc,
		nil,
		config.TokensConfig{RefreshTokenTTL: 7 * 24 * time.Hour, Retention: 7 * 24 * time.Hour},
	)
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestService(db)

	user, err := svc.Register("A@X.com ", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Errorf("Expected normalized email a@x.com, got %s", user.Email)
	}
	if user.GlobalRole != models.GlobalRoleUser {
		t.Errorf("Expected global role user, got %s", user.GlobalRole)
	}

	_, err = svc.Register("a@x.com", "password123")
	if e, ok := err.(*errors.Error); !ok || e.Code != errors.ErrCodeConflict {
		t.Errorf("Expected conflict on duplicate email, got %v", err)
	}

	_, err = svc.Register("b@x.com", "short")
	if e, ok := err.(*errors.Error); !ok || e.Code != errors.ErrCodeInvalidInput {
		t.Errorf("Expected invalid input on short password, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestService(db)

	if _, err := svc.Register("a@x.com", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	pair, err := svc.Authenticate("a@x.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("Expected both tokens to be issued")
	}

	_, err = svc.Authenticate("a@x.com", "wrongpassword")
	if e, ok := err.(*errors.Error); !ok || e.Code != errors.ErrCodeUnauthorized {
		t.Errorf("Expected unauthorized on wrong password, got %v", err)
	}

	_, err = svc.Authenticate("nobody@x.com", "password123")
	if e, ok := err.(*errors.Error); !ok || e.Code != errors.ErrCodeUnauthorized {
		t.Errorf("Expected unauthorized on unknown email, got %v", err)
	}
}

func TestAuthenticate_DisabledAccount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestService(db)

	user, _ := svc.Register("a@x.com", "password123")
	if _, err := db.Exec(`UPDATE users SET is_active = 0 WHERE id = ?`, user.ID); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Authenticate("a@x.com", "password123")
	if e, ok := err.(*errors.Error); !ok || e.Code != errors.ErrCodeForbidden {
		t.Errorf("Expected forbidden on disabled account, got %v", err)
	}
}

func TestRenew_Rotation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestService(db)

	svc.Register("a@x.com", "password123")
	pair, err := svc.Authenticate("a@x.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	renewed, err := svc.Renew(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if renewed.RefreshToken == pair.RefreshToken {
		t.Error("Expected a fresh refresh token after rotation")
	}

	// old token is single-use: replay must fail
	if _, err := svc.Renew(pair.RefreshToken); err == nil {
		t.Error("Expected replayed token to be rejected")
	} else if e, ok := err.(*errors.Error); !ok || e.Code != errors.ErrCodeUnauthorized {
		t.Errorf("Expected unauthorized on replay, got %v", err)
	}

	// the rotated token works exactly once more
	if _, err := svc.Renew(renewed.RefreshToken); err != nil {
		t.Errorf("Expected rotated token to renew, got %v", err)
	}
}

func TestRenew_Expired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestService(db)

	svc.Register("a@x.com", "password123")
	pair, _ := svc.Authenticate("a@x.com", "password123")

	if _, err := db.Exec(`UPDATE refresh_tokens SET expires_at = ?`, time.Now().Unix()-10); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Renew(pair.RefreshToken)
	if e, ok := err.(*errors.Error); !ok || e.Code != errors.ErrCodeUnauthorized {
		t.Errorf("Expected unauthorized on expired token, got %v", err)
	}
}

func TestRevoke_Twice(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestService(db)

	svc.Register("a@x.com", "password123")
	pair, _ := svc.Authenticate("a@x.com", "password123")

	if err := svc.Revoke(pair.RefreshToken); err != nil {
		t.Fatalf("First revoke failed: %v", err)
	}

	err := svc.Revoke(pair.RefreshToken)
	if e, ok := err.(*errors.Error); !ok || e.Code != errors.ErrCodeAlreadyRevoked {
		t.Errorf("Expected already-revoked on second revoke, got %v", err)
	}

	if err := svc.Revoke("no-such-token"); err == nil {
		t.Error("Expected not found for unknown token")
	} else if e, ok := err.(*errors.Error); !ok || e.Code != errors.ErrCodeNotFound {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestRevokeAll(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestService(db)

	svc.Register("a@x.com", "password123")
	// three devices
	svc.Authenticate("a@x.com", "password123")
	svc.Authenticate("a@x.com", "password123")
	pair, _ := svc.Authenticate("a@x.com", "password123")

	count, err := svc.RevokeAll(pair.RefreshToken)
	if err != nil {
		t.Fatalf("RevokeAll failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 tokens revoked, got %d", count)
	}

	if _, err := svc.RevokeAll(pair.RefreshToken); err == nil {
		t.Error("Expected already-revoked on second revoke-all")
	}
}

func TestPromote(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestService(db)

	admin, _ := svc.Register("admin@x.com", "password123")
	db.Exec(`UPDATE users SET global_role = 'admin' WHERE id = ?`, admin.ID)
	admin.GlobalRole = models.GlobalRoleAdmin

	target, _ := svc.Register("b@x.com", "password123")

	updated, err := svc.Promote(admin, target.ID, models.GlobalRoleAdmin)
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if updated.GlobalRole != models.GlobalRoleAdmin {
		t.Errorf("Expected admin role, got %s", updated.GlobalRole)
	}

	regular, _ := svc.Register("c@x.com", "password123")
	if _, err := svc.Promote(regular, target.ID, models.GlobalRoleUser); err == nil {
		t.Error("Expected forbidden for non-admin caller")
	}

	if _, err := svc.Promote(admin, "usr_missing", models.GlobalRoleAdmin); err == nil {
		t.Error("Expected not found for missing target")
	}
}
