package edi

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/justapithecus/drayage/types"
)

// Fixed element positions within the segments this builder reads.
// Positions are zero-based after the tag is stripped.
const (
	isaSenderID   = 5
	isaReceiverID = 7

	begPONumber = 2
	begDate     = 4

	n1Qualifier  = 0
	n1Name       = 1
	n1CustomerID = 3

	po1LineNumber = 0
	po1Quantity   = 1
	po1UOM        = 2
	po1Price      = 3
	po1ProductID  = 7 // PO107 product/service ID; PO106 holds the UP qualifier

	cttTotalItems = 0
)

// N1 entity qualifiers recognized by this feed. Unrecognized qualifiers
// are ignored, not an error.
const (
	qualifierBillTo = "BT"
	qualifierShipTo = "ST"
)

var datePattern = regexp.MustCompile(`^\d{8}$`)

// Builder interprets a segment sequence into a normalized purchase order.
//
// Tags are processed in encounter order; duplicate BEG/CTT segments
// overwrite earlier values (last wins). StrictSequence additionally
// enforces the canonical segment order before building.
type Builder struct {
	Delimiters     Delimiters
	StrictSequence bool
}

// Parse lexes raw EDI text and builds a purchase order from it.
func (b *Builder) Parse(text string) (*types.PurchaseOrder, error) {
	segments, err := LexWith(b.Delimiters, text)
	if err != nil {
		return nil, err
	}
	if b.StrictSequence {
		if err := CheckSequence(Tags(segments)); err != nil {
			return nil, err
		}
	}
	return Build(segments)
}

// Build accumulates purchase order fields from a segment sequence.
// The input is never mutated; the result is a fresh, fully populated
// purchase order or an error.
func Build(segments []Segment) (*types.PurchaseOrder, error) {
	po := &types.PurchaseOrder{Items: []types.LineItem{}}

	for _, seg := range segments {
		switch seg.Tag {
		case "ISA":
			po.Header.SenderID = strings.TrimSpace(seg.Element(isaSenderID))
			po.Header.ReceiverID = strings.TrimSpace(seg.Element(isaReceiverID))

		case "BEG":
			po.Header.PONumber = seg.Element(begPONumber)
			po.Header.Date = seg.Element(begDate)
			if !datePattern.MatchString(po.Header.Date) {
				return nil, &DateError{Value: po.Header.Date}
			}

		case "N1":
			switch seg.Element(n1Qualifier) {
			case qualifierBillTo:
				po.BillTo = types.Party{
					Name:       seg.Element(n1Name),
					CustomerID: seg.Element(n1CustomerID),
				}
			case qualifierShipTo:
				po.ShipTo = types.Party{
					Name:       seg.Element(n1Name),
					CustomerID: seg.Element(n1CustomerID),
				}
			}

		case "PO1":
			quantity, err := parseFloat(seg, po1Quantity)
			if err != nil {
				return nil, err
			}
			price, err := parseFloat(seg, po1Price)
			if err != nil {
				return nil, err
			}
			po.Items = append(po.Items, types.LineItem{
				LineNumber: seg.Element(po1LineNumber),
				Quantity:   quantity,
				UOM:        seg.Element(po1UOM),
				Price:      price,
				ProductID:  seg.Element(po1ProductID),
			})

		case "CTT":
			total, err := parseInt(seg, cttTotalItems)
			if err != nil {
				return nil, err
			}
			po.TotalItems = total
		}
	}

	return po, nil
}

// parseFloat parses a numeric element, surfacing failures as a
// FieldParseError instead of letting a NaN leak into the order.
func parseFloat(seg Segment, i int) (float64, error) {
	raw := seg.Element(i)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &FieldParseError{Tag: seg.Tag, Element: i, Value: raw, Err: err}
	}
	return v, nil
}

func parseInt(seg Segment, i int) (int, error) {
	raw := seg.Element(i)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FieldParseError{Tag: seg.Tag, Element: i, Value: raw, Err: err}
	}
	return v, nil
}
