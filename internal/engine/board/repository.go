package board

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

func (r *Repository) GetBySession(sessionID string) (*models.Board, error) {
	b := &models.Board{}
	err := r.db.QueryRow(`
		SELECT id, session_id, config, background_image_id, created_at, updated_at
		FROM boards WHERE session_id = ?
	`, sessionID).Scan(&b.ID, &b.SessionID, &b.Config, &b.BackgroundImageID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (r *Repository) Update(b *models.Board) error {
	_, err := r.db.Exec(`
		UPDATE boards SET config = ?, background_image_id = ?, updated_at = ?
		WHERE id = ?
	`, b.Config, b.BackgroundImageID, b.UpdatedAt, b.ID)
	return err
}

const elementColumns = `id, board_id, type, name, character_id, item_id, image_id, content, position, is_visible, visible_to, created_at, updated_at`

func (r *Repository) CreateElement(e *models.BoardElement) error {
	_, err := r.db.Exec(`
		INSERT INTO board_elements (`+elementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.BoardID, e.Type, e.Name, e.CharacterID, e.ItemID, e.ImageID, e.Content, e.Position, e.IsVisible, e.VisibleTo, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *Repository) GetElement(id, boardID string) (*models.BoardElement, error) {
	e := &models.BoardElement{}
	err := r.db.QueryRow(`
		SELECT `+elementColumns+` FROM board_elements WHERE id = ? AND board_id = ?
	`, id, boardID).Scan(&e.ID, &e.BoardID, &e.Type, &e.Name, &e.CharacterID, &e.ItemID, &e.ImageID, &e.Content, &e.Position, &e.IsVisible, &e.VisibleTo, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *Repository) ListElements(boardID string) ([]*models.BoardElement, error) {
	rows, err := r.db.Query(`
		SELECT `+elementColumns+` FROM board_elements WHERE board_id = ? ORDER BY created_at
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.BoardElement
	for rows.Next() {
		e := &models.BoardElement{}
		if err := rows.Scan(&e.ID, &e.BoardID, &e.Type, &e.Name, &e.CharacterID, &e.ItemID, &e.ImageID, &e.Content, &e.Position, &e.IsVisible, &e.VisibleTo, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateElement(e *models.BoardElement) error {
	_, err := r.db.Exec(`
		UPDATE board_elements
		SET name = ?, image_id = ?, content = ?, position = ?, is_visible = ?, visible_to = ?, updated_at = ?
		WHERE id = ?
	`, e.Name, e.ImageID, e.Content, e.Position, e.IsVisible, e.VisibleTo, e.UpdatedAt, e.ID)
	return err
}

func (r *Repository) DeleteElement(id string) error {
	_, err := r.db.Exec(`DELETE FROM board_elements WHERE id = ?`, id)
	return err
}
