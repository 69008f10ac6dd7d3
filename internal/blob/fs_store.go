package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cardworks/loyalty-cards-be/internal/config"
	"github.com/cardworks/loyalty-cards-be/internal/domain"
)

const ProviderFS = "fs"

// FSStore serves blobs from <root>/<container>/<key> on the local
// filesystem.
type FSStore struct {
	root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) Fetch(ctx context.Context, objectKey, containerName string) (string, error) {
	path := filepath.Join(s.root, containerName, objectKey)

	// Joined path must stay under the configured root.
	if rel, err := filepath.Rel(s.root, path); err != nil || strings.HasPrefix(rel, "..") {
		return "", domain.NewInvalidData(fmt.Sprintf("invalid object key: %s", objectKey))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.NewNotFound(fmt.Sprintf("object %s not found in container %s", objectKey, containerName))
		}
		return "", fmt.Errorf("read object %s from container %s: %w", objectKey, containerName, err)
	}

	return string(data), nil
}

func NewFromConfig(cfg config.BlobConfig) (domain.BlobStore, error) {
	switch cfg.Provider {
	case ProviderFS:
		return NewFSStore(cfg.RootDir), nil
	default:
		return nil, fmt.Errorf("unknown blob provider: %s", cfg.Provider)
	}
}
