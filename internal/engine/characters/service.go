// Package characters manages character sheets. Updates come in two
// permission tiers: an owner edits cosmetic and base fields, the MJ
// additionally edits experience, level and stat overrides, and gold moves
// only through the MJ's adjustment call.
package characters

import (
	"time"

	"github.com/google/uuid"

	"grimoire/internal/engine/sessions"
	"grimoire/internal/pkg/errors"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

type Service struct {
	repo     *Repository
	sessions *sessions.Service
	images   *repositories.ImageRepository
}

func NewService(repo *Repository, sessionSvc *sessions.Service, images *repositories.ImageRepository) *Service {
	return &Service{repo: repo, sessions: sessionSvc, images: images}
}

type CreateInput struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Class         string         `json:"class"`
	Level         int            `json:"level"`
	Gold          int            `json:"gold"`
	Stats         models.JSONMap `json:"stats"`
	AvatarImageID *string        `json:"avatar_image_id"`
}

// Create adds a character sheet owned by the caller, who must be an active
// player in the session.
func (s *Service) Create(user *models.User, sessionID string, in CreateInput) (*models.Character, error) {
	if err := s.sessions.RequireActivePlayer(user.ID, sessionID); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, errors.InvalidInput("Character name is required")
	}
	if err := s.checkImage(in.AvatarImageID); err != nil {
		return nil, err
	}
	if in.Level <= 0 {
		in.Level = 1
	}
	if in.Gold < 0 {
		return nil, errors.InvalidInput("Gold cannot be negative")
	}
	if in.Stats == nil {
		in.Stats = models.JSONMap{}
	}

	now := time.Now().Unix()
	character := &models.Character{
		ID:            "chr_" + uuid.NewString(),
		SessionID:     sessionID,
		OwnerID:       user.ID,
		Name:          in.Name,
		Description:   in.Description,
		Class:         in.Class,
		Level:         in.Level,
		Gold:          in.Gold,
		IsAlive:       true,
		Stats:         in.Stats,
		AvatarImageID: models.NilIfEmpty(in.AvatarImageID),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(character); err != nil {
		return nil, err
	}
	return character, nil
}

type UpdateInput struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Class         *string `json:"class"`
	AvatarImageID *string `json:"avatar_image_id"`
	IsAlive       *bool   `json:"is_alive"`
}

// Update is the owner tier: cosmetic and base fields only.
func (s *Service) Update(user *models.User, sessionID, characterID string, in UpdateInput) (*models.Character, error) {
	character, err := s.repo.GetInSession(characterID, sessionID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, errors.NotFound("Character not found")
	}
	if character.OwnerID != user.ID {
		return nil, errors.Forbidden("Not your character")
	}

	if err := s.applyBase(character, in); err != nil {
		return nil, err
	}
	character.UpdatedAt = time.Now().Unix()
	if err := s.repo.Update(character); err != nil {
		return nil, err
	}
	return character, nil
}

type MJUpdateInput struct {
	UpdateInput
	Level      *int           `json:"level"`
	Experience *int           `json:"experience"`
	Stats      models.JSONMap `json:"stats"`
}

// UpdateAsMJ is the MJ tier: everything the owner can touch plus level,
// experience and stat overrides, on any character in the session.
func (s *Service) UpdateAsMJ(user *models.User, sessionID, characterID string, in MJUpdateInput) (*models.Character, error) {
	if _, err := s.sessions.RequireMJ(user.ID, sessionID); err != nil {
		return nil, err
	}
	character, err := s.repo.GetInSession(characterID, sessionID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, errors.NotFound("Character not found")
	}

	if err := s.applyBase(character, in.UpdateInput); err != nil {
		return nil, err
	}
	if in.Level != nil {
		if *in.Level <= 0 {
			return nil, errors.InvalidInput("Level must be positive")
		}
		character.Level = *in.Level
	}
	if in.Experience != nil {
		if *in.Experience < 0 {
			return nil, errors.InvalidInput("Experience cannot be negative")
		}
		character.Experience = *in.Experience
	}
	if in.Stats != nil {
		character.Stats = character.Stats.Merge(in.Stats)
	}
	character.UpdatedAt = time.Now().Unix()
	if err := s.repo.Update(character); err != nil {
		return nil, err
	}
	return character, nil
}

// AdjustGold applies a signed delta to a character's gold, clamped at zero.
// MJ only.
func (s *Service) AdjustGold(user *models.User, sessionID, characterID string, amount int) (*models.Character, error) {
	if _, err := s.sessions.RequireMJ(user.ID, sessionID); err != nil {
		return nil, err
	}
	character, err := s.repo.GetInSession(characterID, sessionID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, errors.NotFound("Character not found")
	}

	character.Gold += amount
	if character.Gold < 0 {
		character.Gold = 0
	}
	character.UpdatedAt = time.Now().Unix()
	if err := s.repo.Update(character); err != nil {
		return nil, err
	}
	return character, nil
}

// List returns all characters in the session, for the MJ or any active
// player.
func (s *Service) List(user *models.User, sessionID string) ([]*models.Character, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.MJID != user.ID {
		if err := s.sessions.RequireActivePlayer(user.ID, sessionID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListBySession(sessionID)
}

func (s *Service) applyBase(character *models.Character, in UpdateInput) error {
	if in.Name != nil {
		if *in.Name == "" {
			return errors.InvalidInput("Character name is required")
		}
		character.Name = *in.Name
	}
	if in.Description != nil {
		character.Description = *in.Description
	}
	if in.Class != nil {
		character.Class = *in.Class
	}
	if in.AvatarImageID != nil {
		if err := s.checkImage(in.AvatarImageID); err != nil {
			return err
		}
		character.AvatarImageID = models.NilIfEmpty(in.AvatarImageID)
	}
	if in.IsAlive != nil {
		character.IsAlive = *in.IsAlive
	}
	return nil
}

func (s *Service) checkImage(id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	img, err := s.images.GetByID(*id)
	if err != nil {
		return err
	}
	if img == nil {
		return errors.NotFound("Image not found")
	}
	return nil
}
