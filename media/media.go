package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
)

// Folders used for uploads.
const (
	FolderMessages = "chat_app_messages"
	FolderProfiles = "chat_app_profile_pics"
)

var (
	ErrTooLarge   = errors.New("image is too large")
	ErrNotImage   = errors.New("only image files are allowed")
	ErrBadDataURL = errors.New("invalid image data format")
)

type Upload struct {
	ContentType string
	Data        []byte
}

// Store uploads images and returns a stable URL for them.
type Store interface {
	Upload(ctx context.Context, folder string, upload Upload) (string, error)
}

// Check enforces the image-only filter and the size limit.
func Check(upload Upload, maxBytes int64) error {
	if maxBytes > 0 && int64(len(upload.Data)) > maxBytes {
		return fmt.Errorf("%w: %s exceeds the %s limit", ErrTooLarge,
			humanize.Bytes(uint64(len(upload.Data))), humanize.Bytes(uint64(maxBytes)))
	}

	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(upload.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotImage
	}
	return nil
}

// FromDataURL decodes "data:image/png;base64,...".
func FromDataURL(dataURL string) (Upload, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return Upload{}, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Upload{}, ErrBadDataURL
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return Upload{}, ErrBadDataURL
	}
	if !strings.HasPrefix(contentType, "image/") {
		return Upload{}, ErrNotImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return Upload{ContentType: contentType, Data: data}, nil
}
