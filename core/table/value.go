package table

import "strconv"

type tag uint8

const (
	tagMissing tag = iota
	tagText
	tagNumber
)

// Value is a single table cell: text, a number, or missing.
// The zero Value is Missing.
type Value struct {
	tag  tag
	text string
	num  float64
}

// Text returns a text cell.
func Text(s string) Value {
	return Value{tag: tagText, text: s}
}

// Number returns a numeric cell.
func Number(f float64) Value {
	return Value{tag: tagNumber, num: f}
}

// Missing returns the transient null marker used before the final sentinel fill.
func Missing() Value {
	return Value{}
}

func (v Value) IsMissing() bool { return v.tag == tagMissing }
func (v Value) IsText() bool    { return v.tag == tagText }
func (v Value) IsNumber() bool  { return v.tag == tagNumber }

// AsText returns the text of a Text cell.
func (v Value) AsText() (string, bool) {
	return v.text, v.tag == tagText
}

// AsNumber returns the number of a Number cell.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.tag == tagNumber
}

// String renders the cell the way the sinks write it. Missing renders empty.
func (v Value) String() string {
	switch v.tag {
	case tagText:
		return v.text
	case tagNumber:
		return FormatNumber(v.num)
	default:
		return ""
	}
}

// FormatNumber renders f with the fewest digits that round-trip.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
