package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justapithecus/drayage/iox"
	"github.com/justapithecus/drayage/types"
)

func testOrder() *types.PurchaseOrder {
	return &types.PurchaseOrder{
		Header: types.Header{PONumber: "PO123", Date: "20240115"},
		Items: []types.LineItem{
			{LineNumber: "1", Quantity: 10, UOM: "EA", Price: 5.00, ProductID: "SKU1"},
		},
		TotalItems: 1,
	}
}

func newTestDispatcher(t *testing.T, handler http.Handler) *Dispatcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	d, err := New(Config{URL: srv.URL, Headers: map[string]string{"X-Api-Key": "k"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(d))
	return d
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestSend_Success(t *testing.T) {
	var gotPath, gotKey string
	var envelope struct {
		Order *types.PurchaseOrder `json:"order"`
	}
	d := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &envelope); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		_, _ = w.Write([]byte(`{"status": "success"}`))
	}))

	if err := d.Send(context.Background(), testOrder()); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotPath != "/order" {
		t.Errorf("expected /order, got %q", gotPath)
	}
	if gotKey != "k" {
		t.Errorf("custom header not sent")
	}
	if envelope.Order == nil || envelope.Order.Header.PONumber != "PO123" {
		t.Errorf("order envelope: %+v", envelope.Order)
	}
}

func TestSend_NonOKStatus(t *testing.T) {
	d := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := d.Send(context.Background(), testOrder())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", statusErr.Code)
	}
}

func TestSend_ResultError(t *testing.T) {
	d := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "error", "message": "unknown SKU"}`))
	}))

	err := d.Send(context.Background(), testOrder())
	var resultErr *ResultError
	if !errors.As(err, &resultErr) {
		t.Fatalf("expected *ResultError, got %v", err)
	}
	if resultErr.Message != "unknown SKU" {
		t.Errorf("unexpected message %q", resultErr.Message)
	}
}

func TestSend_EmptyBodyIsSuccess(t *testing.T) {
	d := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := d.Send(context.Background(), testOrder()); err != nil {
		t.Errorf("empty 204 response rejected: %v", err)
	}
}
