package interchange

import (
	"strconv"

	"github.com/justapithecus/drayage/edi"
	"github.com/justapithecus/drayage/types"
)

// Party qualifiers recognized in the N1 loop. Buyer (BY) and bill-to
// (BT) both identify the billing party on this feed.
const (
	qualifierBuyer  = "BY"
	qualifierBillTo = "BT"
	qualifierShipTo = "ST"
)

// Normalize extracts a purchase order from interchange data.
//
// The first interchange, its first functional group, and the first 850
// transaction are selected; each absence is a NotFoundError. Missing
// party loops degrade to an empty Party rather than failing — an 850
// without an N1 loop is unusual but not invalid.
func Normalize(interchanges []Interchange) (*types.PurchaseOrder, error) {
	if len(interchanges) == 0 {
		return nil, &NotFoundError{What: "X12 interchange"}
	}
	first := interchanges[0]

	if len(first.Groups) == 0 {
		return nil, &NotFoundError{What: "functional group"}
	}
	group := first.Groups[0]

	txn, ok := find850(group.Transactions)
	if !ok {
		return nil, &NotFoundError{What: "850 purchase order transaction"}
	}

	billTo, _ := findParty(txn.N1Loop, qualifierBuyer, qualifierBillTo)
	shipTo, _ := findParty(txn.N1Loop, qualifierShipTo)

	items := make([]types.LineItem, 0, len(txn.PO1Loop))
	for _, entry := range txn.PO1Loop {
		item, err := normalizeItem(entry.PO1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &types.PurchaseOrder{
		Header: types.Header{
			SenderID:          group.GS.SenderCode,
			SenderQualifier:   first.ISA.SenderQualifier,
			ReceiverID:        group.GS.ReceiverCode,
			ReceiverQualifier: first.ISA.ReceiverQualifier,
			PONumber:          txn.BEG.PONumber,
			ControlNumber:     txn.ST.ControlNumber,
			Date:              txn.BEG.Date,
		},
		BillTo: billTo,
		ShipTo: shipTo,
		Items:  items,
		// Item count on this path; the source CTT total is not consulted.
		TotalItems: len(items),
	}, nil
}

// find850 selects the first purchase order transaction in the group.
func find850(txns []Transaction) (Transaction, bool) {
	for _, txn := range txns {
		if txn.ST.IdentifierCode == TransactionSet850 {
			return txn, true
		}
	}
	return Transaction{}, false
}

// findParty returns the first N1 entry matching any of the qualifiers.
// The second result is false when the loop has no such entry.
func findParty(loop []N1Entry, qualifiers ...string) (types.Party, bool) {
	for _, entry := range loop {
		for _, q := range qualifiers {
			if entry.N1.EntityIdentifierCode == q {
				return types.Party{
					Name:       entry.N1.Name,
					CustomerID: entry.N1.IdentificationCode,
				}, true
			}
		}
	}
	return types.Party{}, false
}

// normalizeItem converts one PO1 segment, surfacing bad numerics as
// typed field errors instead of zero values.
func normalizeItem(po1 PO1) (types.LineItem, error) {
	quantity, err := strconv.Atoi(po1.QuantityOrdered)
	if err != nil {
		return types.LineItem{}, &edi.FieldParseError{Tag: "PO1", Element: 1, Value: po1.QuantityOrdered, Err: err}
	}
	price, err := strconv.ParseFloat(po1.UnitPrice, 64)
	if err != nil {
		return types.LineItem{}, &edi.FieldParseError{Tag: "PO1", Element: 3, Value: po1.UnitPrice, Err: err}
	}
	return types.LineItem{
		LineNumber: po1.AssignedIdentification,
		Quantity:   float64(quantity),
		UOM:        po1.UnitOfMeasure,
		Price:      price,
		ProductID:  po1.ProductServiceID,
	}, nil
}
