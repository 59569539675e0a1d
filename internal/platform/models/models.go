package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Global application roles. Organization roles are a separate scope and live
// in the roles engine.
const (
	GlobalRoleUser  = "user"
	GlobalRoleAdmin = "admin"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

const (
	JoinModeOpen       = "open"
	JoinModeApproval   = "approval"
	JoinModeInviteOnly = "invite_only"
	JoinModeClosed     = "closed"
)

const (
	MembershipActive    = "active"
	MembershipPending   = "pending"
	MembershipInvited   = "invited"
	MembershipSuspended = "suspended"
	MembershipBanned    = "banned"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	GlobalRole   string `json:"global_role"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    int64  `json:"created_at"`
}

// RefreshToken is an opaque server-side credential. Multiple live tokens per
// user are allowed (one per device); a revoked or expired token is never
// accepted for renewal.
type RefreshToken struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
	Revoked   bool   `json:"revoked"`
	RevokedAt *int64 `json:"revoked_at,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type Organization struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Visibility  string `json:"visibility"`
	JoinMode    string `json:"join_mode"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type OrganizationMembership struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	OrganizationID string  `json:"organization_id"`
	Role           string  `json:"role"`
	Status         string  `json:"status"`
	JoinedAt       int64   `json:"joined_at"`
	InvitedByID    *string `json:"invited_by_id,omitempty"`
	ApprovedByID   *string `json:"approved_by_id,omitempty"`
	ApprovedAt     *int64  `json:"approved_at,omitempty"`
}

// ImageAsset is a stored upload reference. This core only reads it; upload,
// resizing and file storage live behind the image service boundary.
type ImageAsset struct {
	ID        string  `json:"id"`
	Filename  string  `json:"filename"`
	URL       string  `json:"url"`
	Width     *int    `json:"width,omitempty"`
	Height    *int    `json:"height,omitempty"`
	FileSize  int     `json:"file_size"`
	Tags      JSONMap `json:"tags,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// ImageEmbed is the lightweight representation surfaced inside other
// resources (characters, items, board elements).
type ImageEmbed struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
	FileSize int    `json:"file_size"`
}

func Embed(img *ImageAsset) *ImageEmbed {
	if img == nil {
		return nil
	}
	return &ImageEmbed{
		ID:       img.ID,
		URL:      img.URL,
		Filename: img.Filename,
		Width:    img.Width,
		Height:   img.Height,
		FileSize: img.FileSize,
	}
}

// NilIfEmpty maps an empty-string reference to nil so optional FK columns
// store NULL, never "". An empty string in a patch reads as "clear".
func NilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// JSONMap is a free-form JSON object persisted as TEXT. Key sets are
// documented per use-site (stats, position, content, dimensions, visible_to)
// and validated by explicit validation steps, not by the type system.
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if len(b) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(b, m)
}

// Merge overlays patch onto m key by key and returns the result. Existing
// keys absent from the patch survive; m itself is not mutated.
func (m JSONMap) Merge(patch JSONMap) JSONMap {
	merged := make(JSONMap, len(m)+len(patch))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}
