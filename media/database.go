package media

import (
	"context"
	"encoding/base64"
	"fmt"

	"chatter-service/model"

	"gorm.io/gorm"
)

// ImagePath is where Database-stored images are served.
const ImagePath = "/v1/messenger/image/"

// Database keeps images as base64 rows and serves them from the API.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) Upload(ctx context.Context, _ string, upload Upload) (string, error) {
	image := &model.Image{
		ContentType: upload.ContentType,
		Data:        base64.StdEncoding.EncodeToString(upload.Data),
	}
	if err := d.db.WithContext(ctx).Create(image).Error; err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return ImagePath + model.FormatID(image.ID), nil
}

// Load returns the stored bytes and content type.
func (d *Database) Load(ctx context.Context, id string) ([]byte, string, error) {
	image := new(model.Image)
	if err := d.db.WithContext(ctx).First(image, "id = ?", id).Error; err != nil {
		return nil, "", err
	}
	data, err := base64.StdEncoding.DecodeString(image.Data)
	if err != nil {
		return nil, "", fmt.Errorf("decode image %s: %w", id, err)
	}
	return data, image.ContentType, nil
}
