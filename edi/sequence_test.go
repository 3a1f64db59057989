package edi

import (
	"errors"
	"testing"
)

func canonicalTags() []string {
	tags := make([]string, len(CanonicalSequence))
	copy(tags, CanonicalSequence)
	return tags
}

func TestCheckSequence_Canonical(t *testing.T) {
	if err := CheckSequence(canonicalTags()); err != nil {
		t.Errorf("canonical sequence rejected: %v", err)
	}
}

func TestCheckSequence_RepeatedBodyAllowed(t *testing.T) {
	tags := []string{
		"ISA", "GS", "ST", "BEG", "REF", "N1", "N1",
		"PO1", "PO1", "PO1", "CTT",
		"SE", "GE", "IEA",
	}
	if err := CheckSequence(tags); err != nil {
		t.Errorf("repeated PO1 body rejected: %v", err)
	}
}

func TestCheckSequence_WrongHeader(t *testing.T) {
	tags := canonicalTags()
	tags[0] = "GS"

	err := CheckSequence(tags)
	var seqErr *SequenceError
	if !errors.As(err, &seqErr) {
		t.Fatalf("expected *SequenceError, got %v", err)
	}
	if seqErr.Position != 0 || seqErr.Want != "ISA" || seqErr.Got != "GS" {
		t.Errorf("error detail: %+v", seqErr)
	}
}

func TestCheckSequence_WrongTrailer(t *testing.T) {
	tags := canonicalTags()
	tags[len(tags)-1] = "SE"

	err := CheckSequence(tags)
	var seqErr *SequenceError
	if !errors.As(err, &seqErr) {
		t.Fatalf("expected *SequenceError, got %v", err)
	}
	if seqErr.Want != "IEA" {
		t.Errorf("expected IEA mismatch, got %+v", seqErr)
	}
}

func TestCheckSequence_TooShort(t *testing.T) {
	if err := CheckSequence([]string{"ISA", "GS"}); err == nil {
		t.Error("truncated sequence accepted")
	}
}
