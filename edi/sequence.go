package edi

// CanonicalSequence is the required segment order for an OrderDog 850
// per the partner integration guide.
var CanonicalSequence = []string{
	"ISA", "GS", "ST", "BEG", "REF", "N1", "N1", "PO1", "CTT", "SE", "GE", "IEA",
}

// Header/trailer spans of CanonicalSequence that CheckSequence enforces
// exactly. The middle of the document may repeat N1/PO1 freely.
const (
	sequenceHeaderLen  = 7
	sequenceTrailerLen = 4
)

// CheckSequence verifies a tag sequence against the canonical order:
// the first seven tags and the last four tags must match exactly.
//
// This is a pure policy function over the tag projection; wiring it is an
// opt-in configuration choice (Builder.StrictSequence), not a default.
func CheckSequence(tags []string) error {
	for i := 0; i < sequenceHeaderLen; i++ {
		want := CanonicalSequence[i]
		got := tagAt(tags, i)
		if got != want {
			return &SequenceError{Position: i, Want: want, Got: got}
		}
	}

	trailer := CanonicalSequence[len(CanonicalSequence)-sequenceTrailerLen:]
	base := len(tags) - sequenceTrailerLen
	for i, want := range trailer {
		got := tagAt(tags, base+i)
		if got != want {
			return &SequenceError{Position: base + i, Want: want, Got: got}
		}
	}

	return nil
}

func tagAt(tags []string, i int) string {
	if i < 0 || i >= len(tags) {
		return ""
	}
	return tags[i]
}
