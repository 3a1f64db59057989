// Package types defines core domain types for the drayage pipeline.
//
//nolint:revive // types is a common Go package naming convention
package types

// Header carries the envelope-level identity of a purchase order.
// Date is always an 8-digit YYYYMMDD string; builders reject anything else.
type Header struct {
	SenderID          string `msgpack:"sender_id" json:"sender_id"`
	SenderQualifier   string `msgpack:"sender_qualifier,omitempty" json:"sender_qualifier,omitempty"`
	ReceiverID        string `msgpack:"receiver_id" json:"receiver_id"`
	ReceiverQualifier string `msgpack:"receiver_qualifier,omitempty" json:"receiver_qualifier,omitempty"`
	PONumber          string `msgpack:"po_number" json:"po_number"`
	ControlNumber     string `msgpack:"control_number,omitempty" json:"control_number,omitempty"`
	Date              string `msgpack:"date" json:"date"`
}

// Party is a named trading party with its account identity.
// CustomerID is the identification code from the N1 segment (element 04).
type Party struct {
	Name       string `msgpack:"name" json:"name"`
	CustomerID string `msgpack:"customer_id" json:"customer_id"`
}

// LineItem is one ordered product line from a PO1 segment.
type LineItem struct {
	LineNumber string  `msgpack:"line_number" json:"line_number"`
	Quantity   float64 `msgpack:"quantity" json:"quantity"`
	UOM        string  `msgpack:"uom" json:"uom"`
	Price      float64 `msgpack:"price" json:"price"`
	ProductID  string  `msgpack:"product_id" json:"product_id"`
}

// PurchaseOrder is the normalized 850 document.
// Built once per document and never mutated afterwards; downstream stages
// receive it as an immutable value.
type PurchaseOrder struct {
	Header Header     `msgpack:"header" json:"header"`
	BillTo Party      `msgpack:"bill_to" json:"bill_to"`
	ShipTo Party      `msgpack:"ship_to" json:"ship_to"`
	Items  []LineItem `msgpack:"items" json:"items"`

	// TotalItems comes from the CTT control segment on the raw-text path
	// and from the item count on the structured path. A mismatch with
	// len(Items) is a validation concern, never silently corrected.
	TotalItems int `msgpack:"total_items" json:"total_items"`
}
