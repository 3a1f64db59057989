// Package interchange defines a typed schema for X12 interchange JSON as
// returned by the EDINation read API, and normalization of an 850
// transaction into a purchase order.
//
// The upstream service does not guarantee stable key casing; Go's JSON
// decoder matches struct fields case-insensitively, so the schema absorbs
// that instability without any key rewriting.
package interchange

import (
	"errors"
	"fmt"
)

// Sentinel for missing envelope levels. Use errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("not found")

// NotFoundError reports which envelope level was absent.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found in interchange data", e.What)
}

// Is reports whether the error matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TransactionSet850 is the ST01 code identifying a purchase order.
const TransactionSet850 = "850"

// Interchange is one ISA/IEA envelope.
type Interchange struct {
	ISA    ISA               `json:"isa"`
	Groups []FunctionalGroup `json:"groups"`
	Result *OperationResult  `json:"result,omitempty"`
}

// ISA is the interchange control header. Element suffixes follow the
// EDINation field naming (segment name + element ordinal).
type ISA struct {
	SenderQualifier   string `json:"senderidqualifier_5"`
	SenderID          string `json:"interchangesenderid_6"`
	ReceiverQualifier string `json:"receiveridqualifier_7"`
	ReceiverID        string `json:"interchangereceiverid_8"`
	ControlNumber     string `json:"interchangecontrolnumber_13"`
}

// FunctionalGroup is one GS/GE envelope.
type FunctionalGroup struct {
	GS           GS            `json:"gs"`
	Transactions []Transaction `json:"transactions"`
}

// GS is the functional group header.
type GS struct {
	SenderCode   string `json:"senderidcode_2"`
	ReceiverCode string `json:"receiveridcode_3"`
}

// Transaction is one ST/SE transaction set.
type Transaction struct {
	ST      ST         `json:"st"`
	BEG     BEG        `json:"beg"`
	N1Loop  []N1Entry  `json:"n1loop"`
	PO1Loop []PO1Entry `json:"po1loop"`
}

// ST is the transaction set header.
type ST struct {
	IdentifierCode string `json:"transactionsetidentifiercode_01"`
	ControlNumber  string `json:"transactionsetcontrolnumber_02"`
}

// BEG is the purchase order beginning segment.
type BEG struct {
	PONumber string `json:"purchaseordernumber_03"`
	Date     string `json:"date_05"`
}

// N1Entry is one entry of the party identification loop.
type N1Entry struct {
	N1 N1 `json:"n1"`
}

// N1 is a party identification segment.
type N1 struct {
	EntityIdentifierCode string `json:"entityidentifiercode_01"`
	Name                 string `json:"name_02"`
	IdentificationCode   string `json:"identificationcode_04"`
}

// PO1Entry is one entry of the order line loop.
type PO1Entry struct {
	PO1 PO1 `json:"po1"`
}

// PO1 is an order line segment.
type PO1 struct {
	AssignedIdentification string `json:"assignedidentification_01"`
	QuantityOrdered        string `json:"quantityordered_02"`
	UnitOfMeasure          string `json:"unitorbasisformeasurementcode_03"`
	UnitPrice              string `json:"unitprice_04"`
	ProductServiceID       string `json:"productserviceid_07"`
}

// OperationResult is the EDINation operation outcome envelope shared by
// the read and validate endpoints.
type OperationResult struct {
	Status  string         `json:"status"`
	Details []ResultDetail `json:"details,omitempty"`
}

// ResultDetail carries one message from an operation result.
type ResultDetail struct {
	Message string `json:"message"`
}

// Succeeded reports whether the operation result is a success.
// A nil result counts as success: the service omits it on clean reads.
func (r *OperationResult) Succeeded() bool {
	return r == nil || r.Status == "success"
}

// Messages flattens the detail messages for logging.
func (r *OperationResult) Messages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Details))
	for _, d := range r.Details {
		out = append(out, d.Message)
	}
	return out
}
