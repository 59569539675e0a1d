// Package board owns the per-session canvas: configuration merges, element
// placement, the per-viewer visibility filter and the image resolution
// chain (direct image, then linked character's avatar, then linked item's
// image).
package board

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"grimoire/internal/engine/characters"
	"grimoire/internal/engine/items"
	"grimoire/internal/engine/sessions"
	"grimoire/internal/pkg/errors"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

type Service struct {
	repo       *Repository
	sessions   *sessions.Service
	characters *characters.Repository
	items      *items.Repository
	images     *repositories.ImageRepository
	cache      *ImageCache
}

func NewService(repo *Repository, sessionSvc *sessions.Service, charRepo *characters.Repository, itemRepo *items.Repository, images *repositories.ImageRepository, cache *ImageCache) *Service {
	return &Service{repo: repo, sessions: sessionSvc, characters: charRepo, items: itemRepo, images: images, cache: cache}
}

// View is a board read with resolved images and, for players, the filtered
// element set.
type View struct {
	*models.Board
	BackgroundImage *models.ImageEmbed `json:"background_image,omitempty"`
	Elements        []*ElementView     `json:"elements"`
}

type ElementView struct {
	*models.BoardElement
	Image    *models.ImageEmbed `json:"image,omitempty"`
	ImageURL *string            `json:"image_url,omitempty"`
}

type ConfigInput struct {
	Dimensions        models.JSONMap `json:"dimensions"`
	BackgroundImageID *string        `json:"background_image_id"`
}

var dimensionKeys = map[string]bool{
	"width":            true,
	"height":           true,
	"grid_size":        true,
	"scale":            true,
	"show_grid":        true,
	"grid_color":       true,
	"background_color": true,
}

// validateDimensions rejects unknown keys and out-of-range values before any
// merge, so a rejected patch never partially applies.
func validateDimensions(patch models.JSONMap) error {
	for key := range patch {
		if !dimensionKeys[key] {
			return errors.InvalidInput(fmt.Sprintf("Invalid dimension key: %s", key))
		}
	}
	if err := checkRange(patch, "width", 100, 8192); err != nil {
		return err
	}
	if err := checkRange(patch, "height", 100, 8192); err != nil {
		return err
	}
	if err := checkRange(patch, "grid_size", 10, 500); err != nil {
		return err
	}
	if err := checkRange(patch, "scale", 0.1, 10); err != nil {
		return err
	}
	return nil
}

func checkRange(patch models.JSONMap, key string, min, max float64) error {
	raw, ok := patch[key]
	if !ok {
		return nil
	}
	v, ok := asFloat(raw)
	if !ok || v < min || v > max {
		return errors.InvalidInput(fmt.Sprintf("%s must be between %g and %g", key, min, max))
	}
	return nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// UpdateConfig merges the dimension patch key by key into the board's
// configuration. Old keys missing from the patch survive.
func (s *Service) UpdateConfig(user *models.User, sessionID string, in ConfigInput) (*models.Board, error) {
	if _, err := s.sessions.RequireMJ(user.ID, sessionID); err != nil {
		return nil, err
	}
	board, err := s.repo.GetBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, errors.NotFound("Board not found")
	}

	if in.Dimensions != nil {
		if err := validateDimensions(in.Dimensions); err != nil {
			return nil, err
		}
		board.Config = board.Config.Merge(in.Dimensions)
	}
	if in.BackgroundImageID != nil {
		if *in.BackgroundImageID != "" {
			if err := s.checkImage(*in.BackgroundImageID); err != nil {
				return nil, err
			}
		}
		board.BackgroundImageID = models.NilIfEmpty(in.BackgroundImageID)
	}
	board.UpdatedAt = time.Now().Unix()

	if err := s.repo.Update(board); err != nil {
		return nil, err
	}
	return board, nil
}

type ElementInput struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	CharacterID *string        `json:"character_id"`
	ItemID      *string        `json:"item_id"`
	ImageID     *string        `json:"image_id"`
	Content     models.JSONMap `json:"content"`
	Position    models.JSONMap `json:"position"`
	IsVisible   *bool          `json:"is_visible"`
	VisibleTo   models.JSONMap `json:"visible_to"`
}

// AddElement places an element on the session's board. Character and item
// references must belong to the same session; position starts from the
// default map with caller keys overlaid.
func (s *Service) AddElement(user *models.User, sessionID string, in ElementInput) (*models.BoardElement, error) {
	if _, err := s.sessions.RequireMJ(user.ID, sessionID); err != nil {
		return nil, err
	}
	board, err := s.repo.GetBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, errors.NotFound("Board not found")
	}
	if !models.ValidElementType(in.Type) {
		return nil, errors.InvalidInput("Unknown element type")
	}

	if in.CharacterID != nil && *in.CharacterID != "" {
		c, err := s.characters.GetInSession(*in.CharacterID, sessionID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, errors.NotFound("Character not found in this session")
		}
	}
	if in.ItemID != nil && *in.ItemID != "" {
		i, err := s.items.GetItemInSession(*in.ItemID, sessionID)
		if err != nil {
			return nil, err
		}
		if i == nil {
			return nil, errors.NotFound("Item not found in this session")
		}
	}
	if in.ImageID != nil && *in.ImageID != "" {
		if err := s.checkImage(*in.ImageID); err != nil {
			return nil, err
		}
	}

	if in.Content == nil {
		in.Content = models.JSONMap{}
	}
	if in.VisibleTo == nil {
		in.VisibleTo = models.JSONMap{"all": true}
	}
	visible := true
	if in.IsVisible != nil {
		visible = *in.IsVisible
	}

	now := time.Now().Unix()
	element := &models.BoardElement{
		ID:          "elt_" + uuid.NewString(),
		BoardID:     board.ID,
		Type:        in.Type,
		Name:        in.Name,
		CharacterID: models.NilIfEmpty(in.CharacterID),
		ItemID:      models.NilIfEmpty(in.ItemID),
		ImageID:     models.NilIfEmpty(in.ImageID),
		Content:     in.Content,
		Position:    DefaultPosition().Merge(in.Position),
		IsVisible:   visible,
		VisibleTo:   in.VisibleTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateElement(element); err != nil {
		return nil, err
	}
	return element, nil
}

type ElementPatch struct {
	Name      *string        `json:"name"`
	ImageID   *string        `json:"image_id"`
	Content   models.JSONMap `json:"content"`
	Position  models.JSONMap `json:"position"`
	IsVisible *bool          `json:"is_visible"`
	VisibleTo models.JSONMap `json:"visible_to"`
}

// UpdateElement merges position and content patches key by key into the
// stored maps; everything else replaces.
func (s *Service) UpdateElement(user *models.User, sessionID, elementID string, in ElementPatch) (*models.BoardElement, error) {
	if _, err := s.sessions.RequireMJ(user.ID, sessionID); err != nil {
		return nil, err
	}
	board, err := s.repo.GetBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, errors.NotFound("Board not found")
	}
	element, err := s.repo.GetElement(elementID, board.ID)
	if err != nil {
		return nil, err
	}
	if element == nil {
		return nil, errors.NotFound("Element not found")
	}

	if in.ImageID != nil {
		if *in.ImageID != "" {
			if err := s.checkImage(*in.ImageID); err != nil {
				return nil, err
			}
		}
		element.ImageID = models.NilIfEmpty(in.ImageID)
	}
	if in.Name != nil {
		element.Name = *in.Name
	}
	if in.Position != nil {
		element.Position = element.Position.Merge(in.Position)
	}
	if in.Content != nil {
		element.Content = element.Content.Merge(in.Content)
	}
	if in.IsVisible != nil {
		element.IsVisible = *in.IsVisible
	}
	if in.VisibleTo != nil {
		element.VisibleTo = in.VisibleTo
	}
	element.UpdatedAt = time.Now().Unix()

	if err := s.repo.UpdateElement(element); err != nil {
		return nil, err
	}
	return element, nil
}

func (s *Service) DeleteElement(user *models.User, sessionID, elementID string) error {
	if _, err := s.sessions.RequireMJ(user.ID, sessionID); err != nil {
		return err
	}
	board, err := s.repo.GetBySession(sessionID)
	if err != nil {
		return err
	}
	if board == nil {
		return errors.NotFound("Board not found")
	}
	element, err := s.repo.GetElement(elementID, board.ID)
	if err != nil {
		return err
	}
	if element == nil {
		return errors.NotFound("Element not found")
	}
	return s.repo.DeleteElement(element.ID)
}

// Get returns the board. The MJ sees every element; an active player sees
// only visible elements their visible_to descriptor admits.
func (s *Service) Get(user *models.User, sessionID string) (*View, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	isMJ := session.MJID == user.ID
	if !isMJ {
		if err := s.sessions.RequireActivePlayer(user.ID, sessionID); err != nil {
			return nil, err
		}
	}

	board, err := s.repo.GetBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, errors.NotFound("Board not found")
	}
	elements, err := s.repo.ListElements(board.ID)
	if err != nil {
		return nil, err
	}

	view := &View{Board: board, Elements: []*ElementView{}}
	if board.BackgroundImageID != nil && *board.BackgroundImageID != "" {
		view.BackgroundImage, err = s.lookupEmbed(*board.BackgroundImageID)
		if err != nil {
			return nil, err
		}
	}

	for _, element := range elements {
		var owner *string
		if element.CharacterID != nil {
			c, err := s.characters.GetByID(*element.CharacterID)
			if err != nil {
				return nil, err
			}
			if c != nil {
				owner = &c.OwnerID
			}
		}

		if !isMJ {
			if !element.IsVisible || !VisibleTo(element, user.ID, owner) {
				continue
			}
		}

		ev := &ElementView{BoardElement: element}
		ev.Image, err = s.resolveElementImage(element)
		if err != nil {
			return nil, err
		}
		if ev.Image != nil {
			ev.ImageURL = &ev.Image.URL
		}
		view.Elements = append(view.Elements, ev)
	}
	return view, nil
}

// resolveElementImage walks the priority chain: the element's own image,
// then the linked character's avatar, then the linked item's resolved image.
func (s *Service) resolveElementImage(element *models.BoardElement) (*models.ImageEmbed, error) {
	if element.ImageID != nil && *element.ImageID != "" {
		return s.lookupEmbed(*element.ImageID)
	}

	if element.CharacterID != nil && *element.CharacterID != "" {
		c, err := s.characters.GetByID(*element.CharacterID)
		if err != nil {
			return nil, err
		}
		if c != nil && c.AvatarImageID != nil && *c.AvatarImageID != "" {
			return s.lookupEmbed(*c.AvatarImageID)
		}
	}

	if element.ItemID != nil && *element.ItemID != "" {
		item, err := s.items.GetItem(*element.ItemID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			var template *models.ItemTemplate
			if item.TemplateID != nil {
				template, err = s.items.GetTemplate(*item.TemplateID)
				if err != nil {
					return nil, err
				}
			}
			if id := items.ResolveImageID(item, template); id != nil {
				return s.lookupEmbed(*id)
			}
		}
	}

	return nil, nil
}

func (s *Service) lookupEmbed(id string) (*models.ImageEmbed, error) {
	if s.cache != nil {
		if embed, ok := s.cache.Get(id); ok {
			return embed, nil
		}
	}
	img, err := s.images.GetByID(id)
	if err != nil {
		return nil, err
	}
	embed := models.Embed(img)
	if embed != nil && s.cache != nil {
		s.cache.Set(id, embed)
	}
	return embed, nil
}

func (s *Service) checkImage(id string) error {
	img, err := s.images.GetByID(id)
	if err != nil {
		return err
	}
	if img == nil {
		return errors.NotFound("Image not found")
	}
	return nil
}
