package storage

import (
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
)

// StorageService abstracts the object storage dependency. Callers reach it
// through the Storage circuit breaker; the implementation itself stays dumb.
type StorageService interface {
	// UploadRaw stores content under publicID in the given folder and returns
	// the public URL.
	UploadRaw(ctx context.Context, publicID, folder string, content []byte) (string, error)
	DeleteFile(ctx context.Context, publicID string) error
}

// StorageServiceImpl is the Cloudinary-backed implementation.
type StorageServiceImpl struct {
	cld       *cloudinary.Cloudinary
	cloudName string
}
