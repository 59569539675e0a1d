package identity

import (
	"database/sql"

	"grimoire/internal/platform/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *Repository) Create(t *models.RefreshToken) error {
	_, err := r.db.Exec(`
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, revoked, revoked_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Token, t.UserID, t.ExpiresAt, t.Revoked, t.RevokedAt, t.CreatedAt)
	return err
}

func (r *Repository) CreateTx(tx *sql.Tx, t *models.RefreshToken) error {
	_, err := tx.Exec(`
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, revoked, revoked_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Token, t.UserID, t.ExpiresAt, t.Revoked, t.RevokedAt, t.CreatedAt)
	return err
}

func (r *Repository) GetByToken(token string) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	err := r.db.QueryRow(`
		SELECT id, token, user_id, expires_at, revoked, revoked_at, created_at
		FROM refresh_tokens WHERE token = ?
	`, token).Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.Revoked, &t.RevokedAt, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *Repository) Revoke(id string, at int64) error {
	_, err := r.db.Exec(`
		UPDATE refresh_tokens SET revoked = 1, revoked_at = ? WHERE id = ?
	`, at, id)
	return err
}

// RevokeTx marks a token revoked only if it is still live, and reports
// whether this call won. Two concurrent rotations of the same token race on
// this guard; exactly one sees rows affected.
func (r *Repository) RevokeTx(tx *sql.Tx, id string, at int64) (bool, error) {
	res, err := tx.Exec(`
		UPDATE refresh_tokens SET revoked = 1, revoked_at = ? WHERE id = ? AND revoked = 0
	`, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeAllForUser revokes every live token of a user in one statement and
// returns how many were hit.
func (r *Repository) RevokeAllForUser(userID string, at int64) (int, error) {
	res, err := r.db.Exec(`
		UPDATE refresh_tokens SET revoked = 1, revoked_at = ? WHERE user_id = ? AND revoked = 0
	`, at, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteStale deletes one user's tokens that are expired or have been revoked
// past the retention cutoff. Runs opportunistically during auth calls.
func (r *Repository) DeleteStale(userID string, now, revokedCutoff int64) error {
	_, err := r.db.Exec(`
		DELETE FROM refresh_tokens
		WHERE user_id = ? AND (expires_at < ? OR (revoked = 1 AND revoked_at < ?))
	`, userID, now, revokedCutoff)
	return err
}

// DeleteAllStale is the worker-side sweep across every user.
func (r *Repository) DeleteAllStale(now, revokedCutoff int64) (int, error) {
	res, err := r.db.Exec(`
		DELETE FROM refresh_tokens
		WHERE expires_at < ? OR (revoked = 1 AND revoked_at < ?)
	`, now, revokedCutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
