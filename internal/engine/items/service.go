// Package items manages organization-scoped item templates, session-local
// game items and stacking character inventories. Display name and image
// resolve custom first, then template, then none.
package items

import (
	"time"

	"github.com/google/uuid"

	"grimoire/internal/engine/characters"
	"grimoire/internal/engine/orgs"
	"grimoire/internal/engine/roles"
	"grimoire/internal/engine/sessions"
	"grimoire/internal/pkg/errors"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

type Service struct {
	repo       *Repository
	orgs       *orgs.Service
	sessions   *sessions.Service
	characters *characters.Repository
	images     *repositories.ImageRepository
}

func NewService(repo *Repository, orgSvc *orgs.Service, sessionSvc *sessions.Service, charRepo *characters.Repository, images *repositories.ImageRepository) *Service {
	return &Service{repo: repo, orgs: orgSvc, sessions: sessionSvc, characters: charRepo, images: images}
}

// ResolveDisplayName prefers the item's custom name over its template's.
func ResolveDisplayName(item *models.GameItem, template *models.ItemTemplate) string {
	if item.CustomName != "" {
		return item.CustomName
	}
	if template != nil {
		return template.Name
	}
	return ""
}

// ResolveImageID walks the fallback chain: custom image, template image,
// none.
func ResolveImageID(item *models.GameItem, template *models.ItemTemplate) *string {
	if item.CustomImageID != nil && *item.CustomImageID != "" {
		return item.CustomImageID
	}
	if template != nil && template.ImageID != nil && *template.ImageID != "" {
		return template.ImageID
	}
	return nil
}

type TemplateInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Stats       models.JSONMap `json:"stats"`
	ImageID     *string        `json:"image_id"`
}

// CreateTemplate registers a reusable item definition. Admin rank in the
// organization required.
func (s *Service) CreateTemplate(user *models.User, orgID string, in TemplateInput) (*models.ItemTemplate, error) {
	if err := s.orgs.RequireRole(user.ID, orgID, roles.Admin); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, errors.InvalidInput("Template name is required")
	}
	if err := s.checkImage(in.ImageID); err != nil {
		return nil, err
	}
	if in.Stats == nil {
		in.Stats = models.JSONMap{}
	}

	template := &models.ItemTemplate{
		ID:             "tpl_" + uuid.NewString(),
		OrganizationID: orgID,
		Name:           in.Name,
		Description:    in.Description,
		Stats:          in.Stats,
		ImageID:        models.NilIfEmpty(in.ImageID),
		CreatedAt:      time.Now().Unix(),
	}
	if err := s.repo.CreateTemplate(template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *Service) ListTemplates(user *models.User, orgID string) ([]*models.ItemTemplate, error) {
	if err := s.orgs.RequireMember(user.ID, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListTemplates(orgID)
}

type ItemInput struct {
	TemplateID        *string        `json:"template_id"`
	CustomName        string         `json:"custom_name"`
	CustomDescription string         `json:"custom_description"`
	CustomStats       models.JSONMap `json:"custom_stats"`
	CustomImageID     *string        `json:"custom_image_id"`
}

// CreateItem adds a session-local item, optionally derived from a template
// of the session's organization. MJ only.
func (s *Service) CreateItem(user *models.User, sessionID string, in ItemInput) (*models.GameItem, error) {
	session, err := s.sessions.RequireMJ(user.ID, sessionID)
	if err != nil {
		return nil, err
	}
	if in.TemplateID != nil && *in.TemplateID != "" {
		template, err := s.repo.GetTemplate(*in.TemplateID)
		if err != nil {
			return nil, err
		}
		if template == nil || template.OrganizationID != session.OrganizationID {
			return nil, errors.NotFound("Template not found")
		}
	} else if in.CustomName == "" {
		return nil, errors.InvalidInput("An item needs a template or a custom name")
	}
	if err := s.checkImage(in.CustomImageID); err != nil {
		return nil, err
	}
	if in.CustomStats == nil {
		in.CustomStats = models.JSONMap{}
	}

	item := &models.GameItem{
		ID:                "itm_" + uuid.NewString(),
		SessionID:         sessionID,
		TemplateID:        models.NilIfEmpty(in.TemplateID),
		CustomName:        in.CustomName,
		CustomDescription: in.CustomDescription,
		CustomStats:       in.CustomStats,
		CustomImageID:     models.NilIfEmpty(in.CustomImageID),
		CreatedAt:         time.Now().Unix(),
	}
	if err := s.repo.CreateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) ListItems(user *models.User, sessionID string) ([]*models.GameItem, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.MJID != user.ID {
		if err := s.sessions.RequireActivePlayer(user.ID, sessionID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListItems(sessionID)
}

type GiveInput struct {
	CharacterID string `json:"character_id"`
	ItemID      string `json:"item_id"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes"`
}

// GiveItem hands an item to a character, stacking quantity on an existing
// (character, item) pair. Both must live in the MJ's session.
func (s *Service) GiveItem(user *models.User, sessionID string, in GiveInput) (*models.CharacterInventory, error) {
	if _, err := s.sessions.RequireMJ(user.ID, sessionID); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	character, err := s.characters.GetInSession(in.CharacterID, sessionID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, errors.NotFound("Character not found in this session")
	}
	item, err := s.repo.GetItemInSession(in.ItemID, sessionID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.NotFound("Item not found in this session")
	}

	return s.repo.UpsertInventory(&models.CharacterInventory{
		ID:          "inv_" + uuid.NewString(),
		CharacterID: in.CharacterID,
		ItemID:      in.ItemID,
		Quantity:    in.Quantity,
		Notes:       in.Notes,
		AcquiredAt:  time.Now().Unix(),
	})
}

// ListInventory returns a character's holdings, visible to the MJ and the
// character's owner.
func (s *Service) ListInventory(user *models.User, sessionID, characterID string) ([]*models.CharacterInventory, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	character, err := s.characters.GetInSession(characterID, sessionID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, errors.NotFound("Character not found")
	}
	if session.MJID != user.ID && character.OwnerID != user.ID {
		return nil, errors.Forbidden("Not your character")
	}
	return s.repo.ListInventory(characterID)
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
