// Package pipeline drives one document through its full lifecycle:
// download, parse, validate, acknowledge, persist, dispatch, and mark
// processed on the remote server.
//
// Failure handling is split by consequence. Parse and validation
// failures are dead-lettered: the remote file is renamed with the error
// marker and never retried. Everything downstream of a valid parse
// (persistence, dispatch, transport hiccups) leaves the remote file
// unmarked so the next poll cycle retries the whole document. Processing
// is idempotent under that retry: the downstream systems tolerate a
// replayed order better than a lost one.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/justapithecus/drayage/edi"
	"github.com/justapithecus/drayage/interchange"
	"github.com/justapithecus/drayage/ledger"
	"github.com/justapithecus/drayage/log"
	"github.com/justapithecus/drayage/transport"
	"github.com/justapithecus/drayage/types"
)

// Parse modes.
const (
	// ModeService parses, validates, and acknowledges through the
	// EDINation API.
	ModeService = "service"
	// ModeLocal parses with the built-in segment builder and skips
	// validation and acknowledgment.
	ModeLocal = "local"
)

// Transport is the remote file surface the pipeline needs.
type Transport interface {
	Download(name string) (string, error)
	MarkProcessed(name string) error
	MarkRejected(name string) error
	UploadAck(name string, ack []byte) error
}

// EDIService parses, validates, and acknowledges X12 documents remotely.
type EDIService interface {
	Read(ctx context.Context, content string) ([]interchange.Interchange, error)
	Validate(ctx context.Context, ic *interchange.Interchange) (*interchange.OperationResult, error)
	Ack(ctx context.Context, ic *interchange.Interchange) ([]byte, error)
}

// Ledger is the durable lifecycle store the pipeline records into.
// Document reports a missing record with ledger.ErrNotFound.
type Ledger interface {
	Document(ctx context.Context, filename string) (*types.Document, error)
	Claim(ctx context.Context, doc *types.Document) error
	Update(ctx context.Context, doc *types.Document) error
	Complete(ctx context.Context, doc *types.Document, po *types.PurchaseOrder) error
}

// Archiver persists raw document bytes to long-term storage.
type Archiver interface {
	SaveFile(ctx context.Context, filename, docType string, content []byte) error
}

// Dispatcher forwards completed orders downstream.
type Dispatcher interface {
	Send(ctx context.Context, po *types.PurchaseOrder) error
}

// Config configures the pipeline.
type Config struct {
	// Mode selects service or local parsing (default service).
	Mode string
	// StrictSequence enforces canonical segment order in local mode.
	StrictSequence bool
	// Delimiters override the X12 defaults in local mode.
	Delimiters edi.Delimiters
}

// Pipeline processes one document at a time.
type Pipeline struct {
	config     Config
	transport  Transport
	service    EDIService
	ledger     Ledger
	archive    Archiver
	dispatcher Dispatcher
	logger     *log.Logger
}

// New creates a pipeline. The service may be nil only in local mode.
func New(cfg Config, t Transport, svc EDIService, l Ledger, a Archiver, d Dispatcher, logger *log.Logger) (*Pipeline, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeService
	}
	if cfg.Mode != ModeService && cfg.Mode != ModeLocal {
		return nil, fmt.Errorf("pipeline: unknown mode %q", cfg.Mode)
	}
	if cfg.Mode == ModeService && svc == nil {
		return nil, errors.New("pipeline: service mode requires an EDI service")
	}

	return &Pipeline{
		config:     cfg,
		transport:  t,
		service:    svc,
		ledger:     l,
		archive:    a,
		dispatcher: d,
		logger:     logger,
	}, nil
}

// Process runs one remote file through the lifecycle.
//
// Returns an error only for transport-layer failures, where the
// connection may be dead and the poller should reconnect. Document-level
// failures are recorded in the ledger and absorbed.
func (p *Pipeline) Process(ctx context.Context, name string) error {
	prior, err := p.ledger.Document(ctx, name)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("pipeline: check claim %s: %w", name, err)
	}
	if prior != nil && prior.Status.Terminal() {
		p.logger.Debug("skipping settled file", map[string]any{
			"file":   name,
			"status": string(prior.Status),
		})
		return nil
	}

	content, err := p.transport.Download(name)
	if err != nil {
		return err
	}

	doc := prior
	if doc != nil {
		// A non-terminal record means the previous attempt failed
		// transiently or the process crashed mid-flight. Re-arm it.
		previous := doc.Status
		if err := doc.Retry(content); err != nil {
			return fmt.Errorf("pipeline: retry %s: %w", name, err)
		}
		if err := p.ledger.Update(ctx, doc); err != nil {
			return fmt.Errorf("pipeline: update %s: %w", name, err)
		}
		p.logger.Info("retrying document", map[string]any{
			"file":     name,
			"previous": string(previous),
		})
	} else {
		doc = types.NewDocument(name, name, content)
		if err := p.ledger.Claim(ctx, doc); err != nil {
			return fmt.Errorf("pipeline: claim %s: %w", name, err)
		}
		if err := p.transition(ctx, doc, types.StatusProcessing); err != nil {
			return err
		}
	}

	po, ic, err := p.parse(ctx, doc)
	if err != nil {
		return err
	}
	if po == nil {
		// Dead-lettered or transiently failed; state already recorded.
		return nil
	}
	if parsed, err := json.Marshal(po); err == nil {
		doc.ParsedContent = string(parsed)
	}

	var ack []byte
	if p.config.Mode == ModeService {
		ack, err = p.validateAndAck(ctx, doc, ic)
		if err != nil {
			return err
		}
		if ack == nil {
			return nil
		}
	}

	if err := p.transition(ctx, doc, types.StatusProcessed); err != nil {
		return err
	}

	if err := p.persist(ctx, doc, ack); err != nil {
		return err
	}

	if err := p.transition(ctx, doc, types.StatusSendingToShopify); err != nil {
		return err
	}
	if err := p.dispatcher.Send(ctx, po); err != nil {
		p.logger.Error("dispatch failed", map[string]any{"file": name, "error": err.Error()})
		return p.record(ctx, doc, err, false)
	}

	if ack != nil {
		if err := p.transport.UploadAck(name, ack); err != nil {
			p.fail(ctx, doc, err, false)
			return err
		}
	}
	if err := p.transport.MarkProcessed(name); err != nil {
		p.fail(ctx, doc, err, false)
		return err
	}

	if err := doc.Transition(types.StatusCompleted); err != nil {
		return fmt.Errorf("pipeline: %s: %w", name, err)
	}
	if err := p.ledger.Complete(ctx, doc, po); err != nil {
		return fmt.Errorf("pipeline: complete %s: %w", name, err)
	}

	p.logger.Info("document completed", map[string]any{
		"file":  name,
		"po":    po.Header.PONumber,
		"items": len(po.Items),
	})
	return nil
}

// parse produces the purchase order and, in service mode, the interchange
// needed for validation and acknowledgment. A nil order with a nil error
// means the document was dead-lettered or deferred.
func (p *Pipeline) parse(ctx context.Context, doc *types.Document) (*types.PurchaseOrder, *interchange.Interchange, error) {
	if p.config.Mode == ModeLocal {
		builder := &edi.Builder{
			Delimiters:     p.config.Delimiters,
			StrictSequence: p.config.StrictSequence,
		}
		po, err := builder.Parse(doc.RawContent)
		if err != nil {
			return nil, nil, p.deadLetter(ctx, doc, err)
		}
		return po, nil, nil
	}

	ics, err := p.service.Read(ctx, doc.RawContent)
	if err != nil {
		// Service or network failure, not a verdict on the document.
		return nil, nil, p.record(ctx, doc, err, false)
	}

	po, err := interchange.Normalize(ics)
	if err != nil {
		return nil, nil, p.deadLetter(ctx, doc, err)
	}
	return po, &ics[0], nil
}

// validateAndAck runs remote validation and generates the 997. A nil ack
// with a nil error means the document was rejected or deferred.
func (p *Pipeline) validateAndAck(ctx context.Context, doc *types.Document, ic *interchange.Interchange) ([]byte, error) {
	result, err := p.service.Validate(ctx, ic)
	if err != nil {
		return nil, p.record(ctx, doc, err, false)
	}
	if !result.Succeeded() {
		verdict := fmt.Errorf("validation rejected: %v", result.Messages())
		p.logger.Warn("document failed validation", map[string]any{
			"file":     doc.ID,
			"messages": result.Messages(),
		})
		if err := p.transport.MarkRejected(doc.ID); err != nil {
			p.fail(ctx, doc, err, false)
			return nil, err
		}
		return nil, p.record(ctx, doc, verdict, false)
	}

	ack, err := p.service.Ack(ctx, ic)
	if err != nil {
		return nil, p.record(ctx, doc, err, false)
	}
	return ack, nil
}

// persist archives the raw 850 and 997 and stores the parsed form on the
// lifecycle record.
func (p *Pipeline) persist(ctx context.Context, doc *types.Document, ack []byte) error {
	if err := p.archive.SaveFile(ctx, doc.ID, "850", []byte(doc.RawContent)); err != nil {
		return p.record(ctx, doc, err, false)
	}
	if ack != nil {
		if err := p.archive.SaveFile(ctx, doc.ID, "997", ack); err != nil {
			return p.record(ctx, doc, err, false)
		}
	}
	return nil
}

// deadLetter marks the remote file rejected and records the terminal
// parse failure.
func (p *Pipeline) deadLetter(ctx context.Context, doc *types.Document, cause error) error {
	p.logger.Warn("document dead-lettered", map[string]any{
		"file":  doc.ID,
		"error": cause.Error(),
	})
	if err := p.transport.MarkRejected(doc.ID); err != nil {
		p.fail(ctx, doc, err, false)
		return err
	}
	return p.record(ctx, doc, cause, true)
}

// record stores a failure on the lifecycle record and absorbs it.
// Always returns nil so callers can propagate "handled".
func (p *Pipeline) record(ctx context.Context, doc *types.Document, cause error, terminal bool) error {
	p.fail(ctx, doc, cause, terminal)
	return nil
}

func (p *Pipeline) fail(ctx context.Context, doc *types.Document, cause error, terminal bool) {
	if err := doc.Fail(cause, terminal); err != nil {
		p.logger.Error("failure not recordable", map[string]any{
			"file":  doc.ID,
			"cause": cause.Error(),
			"error": err.Error(),
		})
		return
	}
	if err := p.ledger.Update(ctx, doc); err != nil {
		p.logger.Error("failed to record failure", map[string]any{
			"file":  doc.ID,
			"error": err.Error(),
		})
	}
}

func (p *Pipeline) transition(ctx context.Context, doc *types.Document, to types.DocumentStatus) error {
	if err := doc.Transition(to); err != nil {
		return fmt.Errorf("pipeline: %s: %w", doc.ID, err)
	}
	if err := p.ledger.Update(ctx, doc); err != nil {
		return fmt.Errorf("pipeline: update %s: %w", doc.ID, err)
	}
	return nil
}

// IsTransportError reports whether the failure came from the FTP layer,
// meaning the connection may need to be re-established.
func IsTransportError(err error) bool {
	var terr *transport.Error
	return errors.As(err, &terr) || errors.Is(err, transport.ErrNotConnected)
}
