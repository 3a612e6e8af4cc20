package invoice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Store persists rendered invoice documents and returns where they were written.
type Store interface {
	Put(ctx context.Context, name, contentType string, body []byte) (string, error)
}

// fileStore implements Store on the local file system.
type fileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates a store that writes documents under dir.
func NewFileStore(dir string, logger zerolog.Logger) Store {
	return &fileStore{
		dir:    dir,
		logger: logger.With().Str("component", "invoice-file-store").Logger(),
	}
}

func (s *fileStore) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("failed to create invoice directory")
		return "", fmt.Errorf("failed to create invoice directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to write invoice")
		return "", fmt.Errorf("failed to write invoice %s: %w", path, err)
	}

	s.logger.Info().Str("file", path).Int("bytes", len(body)).Msg("invoice written")
	return path, nil
}

// fallbackStore tries S3 first, then falls back to the local file system.
type fallbackStore struct {
	s3Store   Store
	fileStore Store
	s3Prefix  string
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that prefers S3 and degrades to local files.
// If s3Store is nil, it will only use the file store.
func NewFallbackStore(s3Store, fileStore Store, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		s3Store:   s3Store,
		fileStore: fileStore,
		s3Prefix:  s3Prefix,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "invoice-fallback-store").Logger(),
	}
}

// Put prepends the S3 prefix for object keys; local files use the bare name.
func (s *fallbackStore) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if s.s3Enabled && s.s3Store != nil {
		key := s.s3Prefix + name

		location, err := s.s3Store.Put(ctx, key, contentType, body)
		if err == nil {
			return location, nil
		}

		s.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to store invoice in S3, falling back to local file system")
	}

	return s.fileStore.Put(ctx, name, contentType, body)
}
