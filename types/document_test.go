package types

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to DocumentStatus
		want     bool
	}{
		{StatusQueued, StatusProcessing, true},
		{StatusProcessing, StatusProcessed, true},
		{StatusProcessing, StatusParseError, true},
		{StatusProcessing, StatusError, true},
		{StatusProcessed, StatusSendingToShopify, true},
		{StatusProcessed, StatusError, true},
		{StatusSendingToShopify, StatusCompleted, true},
		{StatusSendingToShopify, StatusError, true},
		{StatusError, StatusProcessing, true},
		{StatusProcessed, StatusProcessing, true},
		{StatusSendingToShopify, StatusProcessing, true},

		{StatusQueued, StatusCompleted, false},
		{StatusQueued, StatusProcessed, false},
		{StatusProcessing, StatusCompleted, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusParseError, StatusProcessing, false},
		{StatusSendingToShopify, StatusProcessed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	if !StatusCompleted.Terminal() {
		t.Error("completed should be terminal")
	}
	if !StatusParseError.Terminal() {
		t.Error("parse_error should be terminal")
	}
	if StatusError.Terminal() {
		t.Error("error should not be terminal")
	}
	if StatusProcessing.Terminal() {
		t.Error("processing should not be terminal")
	}
}

func TestDocument_Transition(t *testing.T) {
	doc := NewDocument("po_001.edi", "/inbound/po_001.edi", "ISA~")
	if doc.Status != StatusQueued {
		t.Fatalf("new document should be queued, got %s", doc.Status)
	}

	if err := doc.Transition(StatusProcessing); err != nil {
		t.Fatalf("queued -> processing: %v", err)
	}

	err := doc.Transition(StatusCompleted)
	if err == nil {
		t.Fatal("processing -> completed should be illegal")
	}
	if doc.Status != StatusProcessing {
		t.Errorf("failed transition changed status to %s", doc.Status)
	}
}

func TestDocument_Fail(t *testing.T) {
	doc := NewDocument("po_001.edi", "/inbound/po_001.edi", "ISA~")
	_ = doc.Transition(StatusProcessing)

	if err := doc.Fail(errors.New("bad quantity"), true); err != nil {
		t.Fatalf("terminal failure: %v", err)
	}
	if doc.Status != StatusParseError {
		t.Errorf("terminal failure: expected parse_error, got %s", doc.Status)
	}
	if doc.Error != "bad quantity" {
		t.Errorf("failure detail not recorded: %q", doc.Error)
	}

	doc = NewDocument("po_002.edi", "/inbound/po_002.edi", "ISA~")
	_ = doc.Transition(StatusProcessing)
	if err := doc.Fail(errors.New("flowsync down"), false); err != nil {
		t.Fatalf("transient failure: %v", err)
	}
	if doc.Status != StatusError {
		t.Errorf("transient failure: expected error, got %s", doc.Status)
	}
}

func TestDocument_Fail_SettledDocumentStays(t *testing.T) {
	doc := NewDocument("po_003.edi", "/inbound/po_003.edi", "ISA~")
	_ = doc.Transition(StatusProcessing)
	_ = doc.Transition(StatusProcessed)
	_ = doc.Transition(StatusSendingToShopify)
	_ = doc.Transition(StatusCompleted)

	if err := doc.Fail(errors.New("late failure"), false); err == nil {
		t.Fatal("failing a completed document should be illegal")
	}
	if doc.Status != StatusCompleted {
		t.Errorf("completed document demoted to %s", doc.Status)
	}
	if doc.Error != "" {
		t.Errorf("failure detail recorded on settled document: %q", doc.Error)
	}
}

func TestDocument_Retry(t *testing.T) {
	doc := NewDocument("po_004.edi", "/inbound/po_004.edi", "ISA~old")
	_ = doc.Transition(StatusProcessing)
	_ = doc.Fail(errors.New("flowsync down"), false)

	if err := doc.Retry("ISA~new"); err != nil {
		t.Fatalf("retry from error: %v", err)
	}
	if doc.Status != StatusProcessing {
		t.Errorf("retry: expected processing, got %s", doc.Status)
	}
	if doc.RawContent != "ISA~new" {
		t.Errorf("retry did not refresh content: %q", doc.RawContent)
	}
	if doc.Error != "" {
		t.Errorf("retry kept stale failure detail: %q", doc.Error)
	}
}

func TestDocument_Retry_StrandedMidFlight(t *testing.T) {
	// A record left at sending_to_shopify by a crash is re-armed.
	doc := NewDocument("po_005.edi", "/inbound/po_005.edi", "ISA~")
	_ = doc.Transition(StatusProcessing)
	_ = doc.Transition(StatusProcessed)
	_ = doc.Transition(StatusSendingToShopify)

	if err := doc.Retry("ISA~"); err != nil {
		t.Fatalf("retry from sending_to_shopify: %v", err)
	}
	if doc.Status != StatusProcessing {
		t.Errorf("expected processing, got %s", doc.Status)
	}
}

func TestDocument_Retry_TerminalRefused(t *testing.T) {
	doc := NewDocument("po_006.edi", "/inbound/po_006.edi", "ISA~")
	_ = doc.Transition(StatusProcessing)
	_ = doc.Fail(errors.New("bad date"), true)

	if err := doc.Retry("ISA~"); err == nil {
		t.Fatal("retrying a parse_error document should be illegal")
	}
	if doc.Status != StatusParseError {
		t.Errorf("terminal document re-armed to %s", doc.Status)
	}
}
