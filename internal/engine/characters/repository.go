package characters

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

const characterColumns = `id, session_id, owner_id, name, description, class, level, experience, gold, is_alive, stats, avatar_image_id, created_at, updated_at`

func (r *Repository) Create(c *models.Character) error {
	_, err := r.db.Exec(`
		INSERT INTO characters (`+characterColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.SessionID, c.OwnerID, c.Name, c.Description, c.Class, c.Level, c.Experience, c.Gold, c.IsAlive, c.Stats, c.AvatarImageID, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *Repository) GetByID(id string) (*models.Character, error) {
	return scanCharacter(r.db.QueryRow(`
		SELECT ` + characterColumns + ` FROM characters WHERE id = ?
	`, id))
}

// GetInSession scopes the lookup to one session so cross-session ids read as
// absent.
func (r *Repository) GetInSession(id, sessionID string) (*models.Character, error) {
	return scanCharacter(r.db.QueryRow(`
		SELECT `+characterColumns+` FROM characters WHERE id = ? AND session_id = ?
	`, id, sessionID))
}

func (r *Repository) ListBySession(sessionID string) ([]*models.Character, error) {
	rows, err := r.db.Query(`
		SELECT `+characterColumns+` FROM characters
		WHERE session_id = ? ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Character
	for rows.Next() {
		c := &models.Character{}
		if err := scanCharacterRow(rows, c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) Update(c *models.Character) error {
	_, err := r.db.Exec(`
		UPDATE characters
		SET name = ?, description = ?, class = ?, level = ?, experience = ?, gold = ?, is_alive = ?, stats = ?, avatar_image_id = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Description, c.Class, c.Level, c.Experience, c.Gold, c.IsAlive, c.Stats, c.AvatarImageID, c.UpdatedAt, c.ID)
	return err
}

func scanCharacter(row *sql.Row) (*models.Character, error) {
	c := &models.Character{}
	err := row.Scan(&c.ID, &c.SessionID, &c.OwnerID, &c.Name, &c.Description, &c.Class, &c.Level, &c.Experience, &c.Gold, &c.IsAlive, &c.Stats, &c.AvatarImageID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func scanCharacterRow(rows *sql.Rows, c *models.Character) error {
	return rows.Scan(&c.ID, &c.SessionID, &c.OwnerID, &c.Name, &c.Description, &c.Class, &c.Level, &c.Experience, &c.Gold, &c.IsAlive, &c.Stats, &c.AvatarImageID, &c.CreatedAt, &c.UpdatedAt)
}
