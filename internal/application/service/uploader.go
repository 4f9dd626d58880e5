package service

import (
	"context"
	"io"
)

type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	Delete(ctx context.Context, publicID string) error
	// ThumbnailURL derives a square thumbnail delivery URL for an uploaded image.
	ThumbnailURL(publicID string) (string, error)
}
