package items

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

func (r *Repository) CreateTemplate(t *models.ItemTemplate) error {
	_, err := r.db.Exec(`
		INSERT INTO item_templates (id, organization_id, name, description, stats, image_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.OrganizationID, t.Name, t.Description, t.Stats, t.ImageID, t.CreatedAt)
	return err
}

func (r *Repository) GetTemplate(id string) (*models.ItemTemplate, error) {
	t := &models.ItemTemplate{}
	err := r.db.QueryRow(`
		SELECT id, organization_id, name, description, stats, image_id, created_at
		FROM item_templates WHERE id = ?
	`, id).Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Description, &t.Stats, &t.ImageID, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *Repository) ListTemplates(orgID string) ([]*models.ItemTemplate, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, name, description, stats, image_id, created_at
		FROM item_templates WHERE organization_id = ? ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ItemTemplate
	for rows.Next() {
		t := &models.ItemTemplate{}
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Description, &t.Stats, &t.ImageID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const itemColumns = `id, session_id, template_id, custom_name, custom_description, custom_stats, custom_image_id, created_at`

func (r *Repository) CreateItem(i *models.GameItem) error {
	_, err := r.db.Exec(`
		INSERT INTO game_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, i.ID, i.SessionID, i.TemplateID, i.CustomName, i.CustomDescription, i.CustomStats, i.CustomImageID, i.CreatedAt)
	return err
}

func (r *Repository) GetItem(id string) (*models.GameItem, error) {
	return scanItem(r.db.QueryRow(`
		SELECT ` + itemColumns + ` FROM game_items WHERE id = ?
	`, id))
}

// GetItemInSession scopes the lookup so cross-session ids read as absent.
func (r *Repository) GetItemInSession(id, sessionID string) (*models.GameItem, error) {
	return scanItem(r.db.QueryRow(`
		SELECT `+itemColumns+` FROM game_items WHERE id = ? AND session_id = ?
	`, id, sessionID))
}

func (r *Repository) ListItems(sessionID string) ([]*models.GameItem, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+` FROM game_items WHERE session_id = ? ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.GameItem
	for rows.Next() {
		i := &models.GameItem{}
		if err := rows.Scan(&i.ID, &i.SessionID, &i.TemplateID, &i.CustomName, &i.CustomDescription, &i.CustomStats, &i.CustomImageID, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// UpsertInventory stacks on the (character, item) pair: an existing row gains
// quantity, a fresh pair gets a new row. Non-empty notes overwrite.
func (r *Repository) UpsertInventory(entry *models.CharacterInventory) (*models.CharacterInventory, error) {
	_, err := r.db.Exec(`
		INSERT INTO character_inventories (id, character_id, item_id, quantity, notes, acquired_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(character_id, item_id) DO UPDATE SET
			quantity = quantity + excluded.quantity,
			notes = CASE WHEN excluded.notes != '' THEN excluded.notes ELSE notes END
	`, entry.ID, entry.CharacterID, entry.ItemID, entry.Quantity, entry.Notes, entry.AcquiredAt)
	if err != nil {
		return nil, err
	}
	return r.getInventoryByPair(entry.CharacterID, entry.ItemID)
}

func (r *Repository) ListInventory(characterID string) ([]*models.CharacterInventory, error) {
	rows, err := r.db.Query(`
		SELECT id, character_id, item_id, quantity, notes, acquired_at
		FROM character_inventories WHERE character_id = ? ORDER BY acquired_at
	`, characterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CharacterInventory
	for rows.Next() {
		e := &models.CharacterInventory{}
		if err := rows.Scan(&e.ID, &e.CharacterID, &e.ItemID, &e.Quantity, &e.Notes, &e.AcquiredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) getInventoryByPair(characterID, itemID string) (*models.CharacterInventory, error) {
	e := &models.CharacterInventory{}
	err := r.db.QueryRow(`
		SELECT id, character_id, item_id, quantity, notes, acquired_at
		FROM character_inventories WHERE character_id = ? AND item_id = ?
	`, characterID, itemID).Scan(&e.ID, &e.CharacterID, &e.ItemID, &e.Quantity, &e.Notes, &e.AcquiredAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func scanItem(row *sql.Row) (*models.GameItem, error) {
	i := &models.GameItem{}
	err := row.Scan(&i.ID, &i.SessionID, &i.TemplateID, &i.CustomName, &i.CustomDescription, &i.CustomStats, &i.CustomImageID, &i.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}
