package iox

import (
	"errors"
	"testing"
)

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestDiscardClose(t *testing.T) {
	c := &closer{err: errors.New("close failed")}
	DiscardClose(c)
	if !c.closed {
		t.Error("expected Close to be called")
	}
}

func TestCloseFunc(t *testing.T) {
	c := &closer{}
	fn := CloseFunc(c)
	if c.closed {
		t.Fatal("Close called before cleanup func invoked")
	}
	fn()
	if !c.closed {
		t.Error("expected Close to be called by cleanup func")
	}
}
