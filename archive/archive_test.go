package archive

import (
	"testing"

	"github.com/justapithecus/lode/lode"
)

func TestNewWithFactory_RequiresDataset(t *testing.T) {
	if _, err := NewWithFactory(Config{}, lode.NewMemoryFactory()); err == nil {
		t.Error("expected error for missing dataset")
	}
}

func TestNew_FSRequiresPath(t *testing.T) {
	if _, err := New(Config{Dataset: "drayage", Backend: "fs"}); err == nil {
		t.Error("expected error for missing fs path")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(Config{Dataset: "drayage", Backend: "tape"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestSaveFile(t *testing.T) {
	a, err := NewWithFactory(Config{Dataset: "drayage"}, lode.NewMemoryFactory())
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}

	err = a.SaveFile(t.Context(), "po_001.edi", DocType850, []byte("ISA*00*~"))
	if err != nil {
		t.Fatalf("save 850: %v", err)
	}

	err = a.SaveFile(t.Context(), "po_001.edi", DocType997, []byte("ISA*997~"))
	if err != nil {
		t.Fatalf("save 997: %v", err)
	}
}
