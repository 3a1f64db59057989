// Package ledger is the durable document lifecycle store.
//
// Backed by Redis, keyed by filename, so that claim state survives
// restarts and a crash between claim and completion stays inspectable.
// Completed purchase orders are additionally stored under their PO number
// for later lookup. Records are msgpack-encoded.
package ledger

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/drayage/types"
)

// DefaultKeyPrefix namespaces all ledger keys.
const DefaultKeyPrefix = "drayage"

// ErrNotFound is returned when a document or order key is absent.
var ErrNotFound = errors.New("not found")

// Config configures the ledger.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// KeyPrefix namespaces ledger keys (default: drayage).
	KeyPrefix string
}

// Ledger tracks document lifecycle records and completed orders.
//
// Claims carry no expiry. Whether a file is reprocessed is decided by
// the status on its record: terminal records (completed, parse_error)
// are skipped, any other record is retried on the next cycle.
type Ledger struct {
	client *goredis.Client
	prefix string
}

// New creates a ledger from the given config.
// Returns an error if the URL is empty or invalid.
func New(cfg Config) (*Ledger, error) {
	if cfg.URL == "" {
		return nil, errors.New("ledger requires a Redis URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ledger: invalid URL: %w", err)
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}

	return &Ledger{
		client: goredis.NewClient(opts),
		prefix: cfg.KeyPrefix,
	}, nil
}

func (l *Ledger) docKey(filename string) string {
	return l.prefix + ":doc:" + filename
}

func (l *Ledger) orderKey(poNumber string) string {
	return l.prefix + ":order:" + poNumber
}

// Claim stores the initial lifecycle record for a newly observed file.
func (l *Ledger) Claim(ctx context.Context, doc *types.Document) error {
	return l.put(ctx, doc)
}

// Update overwrites the lifecycle record after a status transition.
func (l *Ledger) Update(ctx context.Context, doc *types.Document) error {
	return l.put(ctx, doc)
}

func (l *Ledger) put(ctx context.Context, doc *types.Document) error {
	data, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("ledger: encode document %s: %w", doc.ID, err)
	}
	if err := l.client.Set(ctx, l.docKey(doc.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("ledger: store document %s: %w", doc.ID, err)
	}
	return nil
}

// Complete stores the final lifecycle record and, as the only write that
// does so, the resulting purchase order under its PO number.
func (l *Ledger) Complete(ctx context.Context, doc *types.Document, po *types.PurchaseOrder) error {
	if err := l.put(ctx, doc); err != nil {
		return err
	}

	data, err := msgpack.Marshal(po)
	if err != nil {
		return fmt.Errorf("ledger: encode order %s: %w", po.Header.PONumber, err)
	}
	if err := l.client.Set(ctx, l.orderKey(po.Header.PONumber), data, 0).Err(); err != nil {
		return fmt.Errorf("ledger: store order %s: %w", po.Header.PONumber, err)
	}
	return nil
}

// Document fetches one lifecycle record.
func (l *Ledger) Document(ctx context.Context, filename string) (*types.Document, error) {
	data, err := l.client.Get(ctx, l.docKey(filename)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("ledger: document %s: %w", filename, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: fetch document %s: %w", filename, err)
	}

	var doc types.Document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ledger: decode document %s: %w", filename, err)
	}
	return &doc, nil
}

// Order fetches a completed purchase order by PO number.
func (l *Ledger) Order(ctx context.Context, poNumber string) (*types.PurchaseOrder, error) {
	data, err := l.client.Get(ctx, l.orderKey(poNumber)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("ledger: order %s: %w", poNumber, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: fetch order %s: %w", poNumber, err)
	}

	var po types.PurchaseOrder
	if err := msgpack.Unmarshal(data, &po); err != nil {
		return nil, fmt.Errorf("ledger: decode order %s: %w", poNumber, err)
	}
	return &po, nil
}

// Documents scans all lifecycle records. Read-only CLI surface; the
// pipeline itself never enumerates.
func (l *Ledger) Documents(ctx context.Context) ([]*types.Document, error) {
	keys, err := l.scan(ctx, l.prefix+":doc:*")
	if err != nil {
		return nil, err
	}

	docs := make([]*types.Document, 0, len(keys))
	for _, key := range keys {
		data, err := l.client.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			continue // deleted between scan and fetch
		}
		if err != nil {
			return nil, fmt.Errorf("ledger: fetch %s: %w", key, err)
		}
		var doc types.Document
		if err := msgpack.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("ledger: decode %s: %w", key, err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// Orders scans all completed purchase orders.
func (l *Ledger) Orders(ctx context.Context) ([]*types.PurchaseOrder, error) {
	keys, err := l.scan(ctx, l.prefix+":order:*")
	if err != nil {
		return nil, err
	}

	orders := make([]*types.PurchaseOrder, 0, len(keys))
	for _, key := range keys {
		data, err := l.client.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ledger: fetch %s: %w", key, err)
		}
		var po types.PurchaseOrder
		if err := msgpack.Unmarshal(data, &po); err != nil {
			return nil, fmt.Errorf("ledger: decode %s: %w", key, err)
		}
		orders = append(orders, &po)
	}
	return orders, nil
}

func (l *Ledger) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := l.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("ledger: scan %s: %w", pattern, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

// Close releases the Redis connection.
func (l *Ledger) Close() error {
	return l.client.Close()
}
