// Package archive writes raw EDI documents to long-term partitioned
// storage through Lode. Every inbound 850 and every generated 997 is
// archived verbatim so disputes can be settled from the original bytes,
// independent of what the parser made of them.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/justapithecus/lode/lode"
)

// Document type partitions.
const (
	DocType850 = "850"
	DocType997 = "997"
)

// Config configures the archive.
type Config struct {
	// Dataset is the Lode dataset identifier (required).
	Dataset string
	// Backend selects the storage backend: "fs" or "s3".
	Backend string
	// Path is the base directory for the fs backend.
	Path string
	// S3 configures the s3 backend.
	S3 S3Config
}

// Archive persists raw EDI documents into a Hive-partitioned dataset.
// Records partition by doc_type and day.
type Archive struct {
	dataset lode.Dataset
}

// New creates an archive for the configured backend.
func New(cfg Config) (*Archive, error) {
	switch cfg.Backend {
	case "", "fs":
		if cfg.Path == "" {
			return nil, fmt.Errorf("archive: fs backend requires a path")
		}
		return NewWithFactory(cfg, lode.NewFSFactory(cfg.Path))
	case "s3":
		factory, err := newS3Factory(cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewWithFactory(cfg, factory)
	default:
		return nil, fmt.Errorf("archive: unknown backend %q", cfg.Backend)
	}
}

// NewWithFactory creates an archive with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewWithFactory(cfg Config, factory lode.StoreFactory) (*Archive, error) {
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("archive: dataset is required")
	}

	ds, err := lode.NewDataset(
		lode.DatasetID(cfg.Dataset),
		factory,
		lode.WithHiveLayout("doc_type", "day"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, fmt.Errorf("archive: create dataset: %w", err)
	}
	return &Archive{dataset: ds}, nil
}

// SaveFile archives one raw document under its type and receipt day.
func (a *Archive) SaveFile(ctx context.Context, filename, docType string, content []byte) error {
	now := time.Now().UTC()
	record := map[string]any{
		"doc_type":  docType,
		"day":       now.Format("2006-01-02"),
		"filename":  filename,
		"content":   string(content),
		"stored_at": now.Format(time.RFC3339Nano),
	}

	if _, err := a.dataset.Write(ctx, []any{record}, lode.Metadata{}); err != nil {
		return fmt.Errorf("archive: write %s %s: %w", docType, filename, err)
	}
	return nil
}

// Close releases archive resources.
func (a *Archive) Close() error {
	return nil
}
