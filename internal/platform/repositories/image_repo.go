package repositories

import (
	"database/sql"

	"grimoire/internal/platform/models"
)

// ImageRepository is the read side of the image registry contract. The core
// never creates or deletes assets; uploads arrive through the image service
// outside this module's scope.
type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) GetByID(id string) (*models.ImageAsset, error) {
	img := &models.ImageAsset{}
	err := r.db.QueryRow(`
		SELECT id, filename, url, width, height, file_size, tags, created_at
		FROM image_assets WHERE id = ?
	`, id).Scan(&img.ID, &img.Filename, &img.URL, &img.Width, &img.Height, &img.FileSize, &img.Tags, &img.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return img, nil
}
