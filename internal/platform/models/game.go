package models

// RPG session lifecycle statuses. The MJ may set any value at any time; no
// transition graph is enforced.
const (
	SessionDraft      = "draft"
	SessionOpen       = "open"
	SessionInProgress = "in_progress"
	SessionPaused     = "paused"
	SessionCompleted  = "completed"
	SessionCancelled  = "cancelled"
)

const (
	PlayerPending  = "pending"
	PlayerActive   = "active"
	PlayerRejected = "rejected"
	PlayerKicked   = "kicked"
	PlayerLeft     = "left"
)

// Board element types.
const (
	ElementCharacter = "character"
	ElementMonster   = "monster"
	ElementItem      = "item"
	ElementMap       = "map"
	ElementNote      = "note"
	ElementImage     = "image"
)

// Session is a single run of a role-playing game ("JDR") inside an
// organization. The MJ is a direct user reference assigned at creation, not
// an organization role.
type Session struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status"`
	MJID           string `json:"mj_id"`
	MaxPlayers     int    `json:"max_players"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

type SessionMembership struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	SessionID    string  `json:"session_id"`
	Status       string  `json:"status"`
	Message      string  `json:"message,omitempty"`
	JoinedAt     int64   `json:"joined_at"`
	ApprovedByID *string `json:"approved_by_id,omitempty"`
	ApprovedAt   *int64  `json:"approved_at,omitempty"`
}

type Character struct {
	ID            string  `json:"id"`
	SessionID     string  `json:"session_id"`
	OwnerID       string  `json:"owner_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Class         string  `json:"class,omitempty"`
	Level         int     `json:"level"`
	Experience    int     `json:"experience"`
	Gold          int     `json:"gold"`
	IsAlive       bool    `json:"is_alive"`
	Stats         JSONMap `json:"stats"`
	AvatarImageID *string `json:"avatar_image_id,omitempty"`
	CreatedAt     int64   `json:"created_at"`
	UpdatedAt     int64   `json:"updated_at"`
}

// ItemTemplate is a reusable, organization-scoped item definition that game
// items may derive from.
type ItemTemplate struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Stats          JSONMap `json:"stats"`
	ImageID        *string `json:"image_id,omitempty"`
	CreatedAt      int64   `json:"created_at"`
}

// GameItem is a session-local item. Custom fields override the template's;
// display name and image resolve custom first, then template, then none.
type GameItem struct {
	ID                string  `json:"id"`
	SessionID         string  `json:"session_id"`
	TemplateID        *string `json:"template_id,omitempty"`
	CustomName        string  `json:"custom_name,omitempty"`
	CustomDescription string  `json:"custom_description,omitempty"`
	CustomStats       JSONMap `json:"custom_stats"`
	CustomImageID     *string `json:"custom_image_id,omitempty"`
	CreatedAt         int64   `json:"created_at"`
}

// CharacterInventory stacks by (character, item): giving an already-held
// item increments quantity rather than adding a row.
type CharacterInventory struct {
	ID          string `json:"id"`
	CharacterID string `json:"character_id"`
	ItemID      string `json:"item_id"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
	AcquiredAt  int64  `json:"acquired_at"`
}

// Board is the per-session canvas, created atomically with its session.
type Board struct {
	ID                string  `json:"id"`
	SessionID         string  `json:"session_id"`
	Config            JSONMap `json:"config"`
	BackgroundImageID *string `json:"background_image_id,omitempty"`
	CreatedAt         int64   `json:"created_at"`
	UpdatedAt         int64   `json:"updated_at"`
}

type BoardElement struct {
	ID          string  `json:"id"`
	BoardID     string  `json:"board_id"`
	Type        string  `json:"type"`
	Name        string  `json:"name,omitempty"`
	CharacterID *string `json:"character_id,omitempty"`
	ItemID      *string `json:"item_id,omitempty"`
	ImageID     *string `json:"image_id,omitempty"`
	Content     JSONMap `json:"content"`
	Position    JSONMap `json:"position"`
	IsVisible   bool    `json:"is_visible"`
	VisibleTo   JSONMap `json:"visible_to"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// DefaultBoardConfig is the canvas every new session starts with.
func DefaultBoardConfig() JSONMap {
	return JSONMap{
		"width":            1920,
		"height":           1080,
		"grid_size":        50,
		"scale":            1.0,
		"show_grid":        true,
		"grid_color":       "#CCCCCC",
		"background_color": "#1a1a2e",
	}
}

func ValidElementType(t string) bool {
	switch t {
	case ElementCharacter, ElementMonster, ElementItem, ElementMap, ElementNote, ElementImage:
		return true
	}
	return false
}
