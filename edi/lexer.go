package edi

import (
	"strings"
	"unicode/utf8"
)

// Default X12 delimiters used by the OrderDog trading partner feed.
const (
	DefaultElementSeparator  = '*'
	DefaultSegmentTerminator = '~'
)

// Delimiters configures the single-character wire delimiters.
// The zero value selects the defaults.
type Delimiters struct {
	// Element separates elements within a segment.
	Element rune
	// Segment terminates a segment line.
	Segment rune
}

// withDefaults fills unset delimiters.
func (d Delimiters) withDefaults() Delimiters {
	if d.Element == 0 {
		d.Element = DefaultElementSeparator
	}
	if d.Segment == 0 {
		d.Segment = DefaultSegmentTerminator
	}
	return d
}

// Segment is one tagged record of an EDI document: the tag followed by
// ordered elements. Immutable once built.
type Segment struct {
	Tag      string
	Elements []string
}

// Element returns the i'th element, or "" when out of range.
// X12 positions are sparse; absent trailing elements read as empty.
func (s Segment) Element(i int) string {
	if i < 0 || i >= len(s.Elements) {
		return ""
	}
	return s.Elements[i]
}

// Lex splits raw EDI text into segments using the default delimiters.
func Lex(text string) ([]Segment, error) {
	return LexWith(Delimiters{}, text)
}

// LexWith splits raw EDI text into segments.
//
// The text is split on line terminators; blank lines are discarded after
// trimming. Each retained line has a single trailing segment terminator
// stripped if present, then is split on the element separator: the first
// token becomes the tag, the rest the elements (order preserved,
// duplicates allowed). No semantic validation happens here — unknown tags
// pass through unchanged.
//
// Returns ErrInvalidInput when the input is empty or not valid text.
func LexWith(d Delimiters, text string) ([]Segment, error) {
	if strings.TrimSpace(text) == "" || !utf8.ValidString(text) {
		return nil, ErrInvalidInput
	}
	d = d.withDefaults()

	var segments []Segment
	for _, line := range strings.FieldsFunc(text, isLineTerminator) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSuffix(line, string(d.Segment))

		tokens := strings.Split(line, string(d.Element))
		segments = append(segments, Segment{
			Tag:      tokens[0],
			Elements: tokens[1:],
		})
	}
	if len(segments) == 0 {
		return nil, ErrInvalidInput
	}
	return segments, nil
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r'
}

// Tags projects the tag sequence of segments, in encounter order.
// Feed the result to CheckSequence for the structural-order policy.
func Tags(segments []Segment) []string {
	tags := make([]string, len(segments))
	for i, s := range segments {
		tags[i] = s.Tag
	}
	return tags
}
