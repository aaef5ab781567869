package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
)

// Publisher uploads build outputs to a configured backend.
type Publisher struct {
	backend Backend
}

// NewPublisher creates a publisher on top of the backend described by cfg
// and verifies that the backend is reachable.
func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	backend, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if err := backend.Ping(ctx); err != nil {
		return nil, err
	}

	if s3b, ok := backend.(*S3Backend); ok {
		if err := s3b.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}

	return &Publisher{backend: backend}, nil
}

// Backend returns the underlying storage backend.
func (p *Publisher) Backend() Backend {
	return p.backend
}

// Publish uploads each file under prefix, keyed by its base name.
// Missing files are skipped so a failed build can still publish its log.
func (p *Publisher) Publish(ctx context.Context, prefix string, files ...string) error {
	for _, name := range files {
		info, err := os.Stat(name)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", name, err)
		}

		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", name, err)
		}

		key := path.Join(prefix, filepath.Base(name))
		contentType := mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		err = p.backend.Upload(ctx, key, f, info.Size(), contentType)
		f.Close()
		if err != nil {
			return err
		}
	}

	return nil
}
