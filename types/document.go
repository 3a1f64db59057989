package types

import (
	"fmt"
	"time"
)

// DocumentStatus is the lifecycle state of an ingested document.
type DocumentStatus string

const (
	// StatusQueued means the document has been discovered but not claimed.
	StatusQueued DocumentStatus = "queued"
	// StatusProcessing means the document is claimed and being parsed/validated.
	StatusProcessing DocumentStatus = "processing"
	// StatusParseError is terminal: lexing, building, or structural validation failed.
	StatusParseError DocumentStatus = "parse_error"
	// StatusProcessed means parsing succeeded and the external validator accepted it.
	StatusProcessed DocumentStatus = "processed"
	// StatusSendingToShopify means the order is acknowledged, persisted, and
	// being handed to the fulfillment backend.
	StatusSendingToShopify DocumentStatus = "sending_to_shopify"
	// StatusCompleted is terminal: dispatched and the remote entry marked processed.
	StatusCompleted DocumentStatus = "completed"
	// StatusError records a persistence/dispatch/transport failure after a
	// valid parse. The remote entry stays unmarked so the next cycle retries.
	StatusError DocumentStatus = "error"
)

// Terminal reports whether no further transition is expected.
// StatusError is not terminal: the document is reprocessed on the next poll.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusParseError
}

// transitions is the legal lifecycle graph. Any mid-flight state may fall
// to StatusError, and any non-terminal state may return to
// StatusProcessing when a later poll cycle retries the document.
var transitions = map[DocumentStatus][]DocumentStatus{
	StatusQueued:           {StatusProcessing},
	StatusProcessing:       {StatusParseError, StatusProcessed, StatusError},
	StatusProcessed:        {StatusSendingToShopify, StatusError, StatusProcessing},
	StatusSendingToShopify: {StatusCompleted, StatusError, StatusProcessing},
	StatusError:            {StatusProcessing},
}

// CanTransition reports whether s → to is a legal lifecycle transition.
func (s DocumentStatus) CanTransition(to DocumentStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Document is the lifecycle record for one remote file.
// Only Status, Error, RawContent (on retry), and UpdatedAt change after
// creation; the record is never deleted by the pipeline.
type Document struct {
	ID               string            `msgpack:"id" json:"id"`
	Status           DocumentStatus    `msgpack:"status" json:"status"`
	OriginalFilePath string            `msgpack:"original_file_path" json:"original_file_path"`
	RawContent       string            `msgpack:"raw_content" json:"raw_content"`
	ParsedContent    string            `msgpack:"parsed_content,omitempty" json:"parsed_content,omitempty"`
	Error            string            `msgpack:"error,omitempty" json:"error,omitempty"`
	CreatedAt        time.Time         `msgpack:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `msgpack:"updated_at" json:"updated_at"`
	Metadata         map[string]string `msgpack:"metadata,omitempty" json:"metadata,omitempty"`
}

// NewDocument creates a queued lifecycle record for a newly observed file.
func NewDocument(id, path, raw string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:               id,
		Status:           StatusQueued,
		OriginalFilePath: path,
		RawContent:       raw,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Transition moves the document to the given status, enforcing the
// lifecycle graph. UpdatedAt is bumped on success.
func (d *Document) Transition(to DocumentStatus) error {
	if !d.Status.CanTransition(to) {
		return fmt.Errorf("illegal document transition %s -> %s", d.Status, to)
	}
	d.Status = to
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail transitions to StatusError (or StatusParseError when terminal is
// true) and records the failure detail for inspection. The move is
// subject to the lifecycle graph like any other: a settled document
// cannot fail.
func (d *Document) Fail(err error, terminal bool) error {
	status := StatusError
	if terminal {
		status = StatusParseError
	}
	if terr := d.Transition(status); terr != nil {
		return terr
	}
	if err != nil {
		d.Error = err.Error()
	}
	return nil
}

// Retry re-arms a non-terminal record for another processing attempt
// with freshly downloaded content, clearing the previous attempt's
// failure detail. Terminal records never retry.
func (d *Document) Retry(raw string) error {
	if d.Status != StatusProcessing {
		if err := d.Transition(StatusProcessing); err != nil {
			return err
		}
	}
	d.RawContent = raw
	d.Error = ""
	d.UpdatedAt = time.Now().UTC()
	return nil
}
