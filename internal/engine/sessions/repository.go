package sessions

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

const sessionColumns = `id, organization_id, name, description, status, mj_id, max_players, created_at, updated_at`

// CreateTx inserts the session and its board in the caller's transaction.
// A session never exists without its board.
func (r *Repository) CreateTx(tx *sql.Tx, s *models.Session, board *models.Board) error {
	_, err := tx.Exec(`
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.OrganizationID, s.Name, s.Description, s.Status, s.MJID, s.MaxPlayers, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO boards (id, session_id, config, background_image_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, board.ID, board.SessionID, board.Config, board.BackgroundImageID, board.CreatedAt, board.UpdatedAt)
	return err
}

func (r *Repository) GetByID(id string) (*models.Session, error) {
	return scanSession(r.db.QueryRow(`
		SELECT `+sessionColumns+` FROM sessions WHERE id = ?
	`, id))
}

func (r *Repository) ListByOrganization(orgID string) ([]*models.Session, error) {
	rows, err := r.db.Query(`
		SELECT `+sessionColumns+` FROM sessions
		WHERE organization_id = ? ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		s := &models.Session{}
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description, &s.Status, &s.MJID, &s.MaxPlayers, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) Update(s *models.Session) error {
	_, err := r.db.Exec(`
		UPDATE sessions SET name = ?, description = ?, status = ?, max_players = ?, updated_at = ?
		WHERE id = ?
	`, s.Name, s.Description, s.Status, s.MaxPlayers, s.UpdatedAt, s.ID)
	return err
}

// Delete removes the session; board, elements, characters, items and
// memberships cascade with it.
func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

const playerColumns = `id, user_id, session_id, status, message, joined_at, approved_by_id, approved_at`

func (r *Repository) GetActiveMembership(userID, sessionID string) (*models.SessionMembership, error) {
	return scanPlayer(r.db.QueryRow(`
		SELECT `+playerColumns+` FROM session_memberships
		WHERE user_id = ? AND session_id = ? AND status = ?
	`, userID, sessionID, models.PlayerActive))
}

func (r *Repository) GetPendingMembership(id, sessionID string) (*models.SessionMembership, error) {
	return scanPlayer(r.db.QueryRow(`
		SELECT `+playerColumns+` FROM session_memberships
		WHERE id = ? AND session_id = ? AND status = ?
	`, id, sessionID, models.PlayerPending))
}

func (r *Repository) ListMemberships(sessionID string) ([]*models.SessionMembership, error) {
	rows, err := r.db.Query(`
		SELECT `+playerColumns+` FROM session_memberships
		WHERE session_id = ? ORDER BY joined_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SessionMembership
	for rows.Next() {
		m := &models.SessionMembership{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.SessionID, &m.Status, &m.Message, &m.JoinedAt, &m.ApprovedByID, &m.ApprovedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Capacity-sensitive reads and the insert they guard run on the transaction
// so concurrent joins serialize on sqlite's single writer.

func (r *Repository) GetMembershipTx(tx *sql.Tx, userID, sessionID string) (*models.SessionMembership, error) {
	return scanPlayer(tx.QueryRow(`
		SELECT `+playerColumns+` FROM session_memberships
		WHERE user_id = ? AND session_id = ? AND status IN (?, ?)
	`, userID, sessionID, models.PlayerActive, models.PlayerPending))
}

func (r *Repository) CountActiveTx(tx *sql.Tx, sessionID string) (int, error) {
	var count int
	err := tx.QueryRow(`
		SELECT COUNT(*) FROM session_memberships
		WHERE session_id = ? AND status = ?
	`, sessionID, models.PlayerActive).Scan(&count)
	return count, err
}

func (r *Repository) CreateMembershipTx(tx *sql.Tx, m *models.SessionMembership) error {
	_, err := tx.Exec(`
		INSERT INTO session_memberships (`+playerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.SessionID, m.Status, m.Message, m.JoinedAt, m.ApprovedByID, m.ApprovedAt)
	return err
}

// ApproveMembership flips pending to active and stamps the approver in one
// statement.
func (r *Repository) ApproveMembership(id, approvedBy string, approvedAt int64) error {
	_, err := r.db.Exec(`
		UPDATE session_memberships
		SET status = ?, approved_by_id = ?, approved_at = ?
		WHERE id = ?
	`, models.PlayerActive, approvedBy, approvedAt, id)
	return err
}

func scanSession(row *sql.Row) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description, &s.Status, &s.MJID, &s.MaxPlayers, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func scanPlayer(row *sql.Row) (*models.SessionMembership, error) {
	m := &models.SessionMembership{}
	err := row.Scan(&m.ID, &m.UserID, &m.SessionID, &m.Status, &m.Message, &m.JoinedAt, &m.ApprovedByID, &m.ApprovedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}
