package board

import "grimoire/internal/platform/models"

// DefaultPosition is the map every new element starts from; caller-supplied
// keys overwrite only the matching defaults.
func DefaultPosition() models.JSONMap {
	return models.JSONMap{
		"x":        0.0,
		"y":        0.0,
		"z":        0.0,
		"width":    100,
		"height":   100,
		"rotation": 0.0,
		"scale":    1.0,
		"opacity":  1.0,
		"locked":   false,
	}
}

// VisibleTo evaluates an element's visible_to descriptor for one viewer.
// An empty descriptor means visible to all. Exactly one mode applies, in
// order: "all", then "player_ids" (listed user ids), then "character_ids"
// (admits only the owner of the element's linked character). A non-empty
// descriptor with none of these keys denies.
func VisibleTo(element *models.BoardElement, viewerID string, characterOwnerID *string) bool {
	descriptor := element.VisibleTo
	if len(descriptor) == 0 {
		return true
	}

	if all, ok := descriptor["all"].(bool); ok && all {
		return true
	}

	if raw, ok := descriptor["player_ids"]; ok {
		ids, _ := raw.([]interface{})
		for _, id := range ids {
			if s, ok := id.(string); ok && s == viewerID {
				return true
			}
		}
		return false
	}

	if _, ok := descriptor["character_ids"]; ok {
		if element.CharacterID != nil && characterOwnerID != nil {
			return *characterOwnerID == viewerID
		}
		return false
	}

	return false
}
