package board

import (
	"sync"
	"time"

	"grimoire/internal/platform/models"
)

type cachedImage struct {
	embed    *models.ImageEmbed
	cachedAt time.Time
}

// ImageCache keeps resolved image embeds hot for board reads, which touch
// the same handful of assets on every poll.
type ImageCache struct {
	store sync.Map // map[image_id]*cachedImage
	ttl   time.Duration
}

func NewImageCache(ttl time.Duration) *ImageCache {
	return &ImageCache{ttl: ttl}
}

func (c *ImageCache) Get(id string) (*models.ImageEmbed, bool) {
	val, ok := c.store.Load(id)
	if !ok {
		return nil, false
	}

	entry := val.(*cachedImage)
	if time.Since(entry.cachedAt) > c.ttl {
		c.store.Delete(id)
		return nil, false
	}
	return entry.embed, true
}

func (c *ImageCache) Set(id string, embed *models.ImageEmbed) {
	c.store.Store(id, &cachedImage{embed: embed, cachedAt: time.Now()})
}
