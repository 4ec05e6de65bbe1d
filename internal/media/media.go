package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxImages = 4
	KeyPrefix = "property_images"
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Store persists an uploaded image and returns the reference clients use to fetch it.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func Allowed(filename string) bool {
	_, ok := contentTypes[Ext(filename)]
	return ok
}

func ContentType(filename string) string {
	if ct, ok := contentTypes[Ext(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

func NewKey(filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s%s", KeyPrefix, now.UnixMilli(), uuid.NewString(), Ext(filename))
}
