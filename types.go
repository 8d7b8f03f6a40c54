package esf

import (
	"fmt"
	"time"
)

// Type codes outside the scalar and array ranges.
const (
	TypeRecord      byte = 0x80
	TypeRecordArray byte = 0x81

	arrayTypeBase byte = 0x40
)

// ElementKind identifies a scalar element type. Its numeric value is the
// scalar type code; the matching array type code is the kind plus 0x40.
type ElementKind uint8

const (
	KindBool        ElementKind = 0x01
	KindInt8        ElementKind = 0x02
	KindInt16       ElementKind = 0x03
	KindInt32       ElementKind = 0x04
	KindInt64       ElementKind = 0x05
	KindUInt8       ElementKind = 0x06
	KindUInt16      ElementKind = 0x07
	KindUInt32      ElementKind = 0x08
	KindUInt64      ElementKind = 0x09
	KindFloat32     ElementKind = 0x0A
	KindFloat64     ElementKind = 0x0B
	KindCoord2D     ElementKind = 0x0C
	KindCoord3D     ElementKind = 0x0D
	KindUtf16String ElementKind = 0x0E
	KindAsciiString ElementKind = 0x0F
	KindAngle       ElementKind = 0x10
)

var kindNames = map[ElementKind]string{
	KindBool:        "bool",
	KindInt8:        "int8",
	KindInt16:       "int16",
	KindInt32:       "int32",
	KindInt64:       "int64",
	KindUInt8:       "uint8",
	KindUInt16:      "uint16",
	KindUInt32:      "uint32",
	KindUInt64:      "uint64",
	KindFloat32:     "float32",
	KindFloat64:     "float64",
	KindCoord2D:     "coord2d",
	KindCoord3D:     "coord3d",
	KindUtf16String: "utf16",
	KindAsciiString: "ascii",
	KindAngle:       "angle",
}

func (k ElementKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(0x%02X)", uint8(k))
}

// Valid reports whether k names one of the sixteen element kinds.
func (k ElementKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ScalarCode returns the type code of a single value of kind k.
func (k ElementKind) ScalarCode() byte { return byte(k) }

// ArrayCode returns the type code of an array of kind k.
func (k ElementKind) ArrayCode() byte { return byte(k) + arrayTypeBase }

// IsString reports whether k is one of the two string kinds.
func (k ElementKind) IsString() bool {
	return k == KindUtf16String || k == KindAsciiString
}

// Coord2D is a two-component float32 coordinate.
type Coord2D struct {
	X, Y float32
}

// Coord3D is a three-component float32 coordinate.
type Coord3D struct {
	X, Y, Z float32
}

// Angle is stored as a raw uint16 and left uninterpreted.
type Angle uint16

// Node is one decoded unit of the tree: *Scalar, *Array, *Record or
// *RecordArray.
type Node interface {
	node()
}

// Scalar holds one value. Value has the Go type matching Kind: bool, int8,
// int16, int32, int64, uint8, uint16, uint32, uint64, float32, float64,
// Coord2D, Coord3D, string (both string kinds) or Angle.
type Scalar struct {
	Kind  ElementKind
	Value any
}

// Array holds values of a single kind in file order.
type Array struct {
	Kind   ElementKind
	Values []any
}

// Record is a structural node. Children holds nested records and record
// arrays; Values holds scalars and arrays. Both keep file order.
type Record struct {
	TagIndex uint16
	Version  uint8
	Children []Node
	Values   []Node
}

// RecordArray is a tagged sequence of record bodies. DeclaredCount is the
// element count stored in the file; len(Elements) is what was observed.
type RecordArray struct {
	TagIndex      uint16
	Version       uint8
	DeclaredCount uint32
	Elements      []Group
}

// Group is one element body of a RecordArray.
type Group struct {
	Children []Node
	Values   []Node
}

func (*Scalar) node()      {}
func (*Array) node()       {}
func (*Record) node()      {}
func (*RecordArray) node() {}

// Structural reports whether n is a *Record or *RecordArray.
func Structural(n Node) bool {
	switch n.(type) {
	case *Record, *RecordArray:
		return true
	}
	return false
}

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// Header is the fixed 16-byte ESF header.
//
// Timestamp is nil for magics that are not a decodable variant.
type Header struct {
	Magic        uint32
	Padding      uint32
	RawTimestamp uint32
	Timestamp    *time.Time
	Range        Range
	NodeBlock    Range
}

// Footer is the trailing tag table and, for pooling variants, the string pool.
//
// DeclaredTags is the count stored in the file; Tags may be shorter when the
// buffer ended early.
type Footer struct {
	DeclaredTags uint16
	Tags         []string
	HasPool      bool
	PoolReserved uint16
	Pool         map[uint32]string
}

// TagName returns the tag name at index i.
func (f *Footer) TagName(i uint16) (string, bool) {
	if int(i) >= len(f.Tags) {
		return "", false
	}
	return f.Tags[i], true
}

// Lookup resolves a pool index.
func (f *Footer) Lookup(id uint32) (string, bool) {
	if !f.HasPool {
		return "", false
	}
	s, ok := f.Pool[id]
	return s, ok
}

// Warning is a non-fatal consistency issue found while decoding.
type Warning struct {
	Offset   int
	TagIndex uint16
	Declared int
	Observed int
}

func (w Warning) String() string {
	return fmt.Sprintf("record array tag %d at offset %d: declared %d elements, observed %d", w.TagIndex, w.Offset, w.Declared, w.Observed)
}

// Document is a decoded ESF file. It is not modified after Decode returns and
// may be shared between goroutines.
type Document struct {
	Codec    Codec
	Header   Header
	Footer   Footer
	Nodes    []Node
	Warnings []Warning
}

// TagName returns the name of the tag referenced by a record's tag index.
func (d *Document) TagName(i uint16) (string, bool) {
	return d.Footer.TagName(i)
}

// Name returns the record's tag name as found in doc, or "" if the index is
// outside the tag table.
func (r *Record) Name(doc *Document) string {
	s, _ := doc.TagName(r.TagIndex)
	return s
}

// Name returns the record array's tag name as found in doc.
func (r *RecordArray) Name(doc *Document) string {
	s, _ := doc.TagName(r.TagIndex)
	return s
}

// Walk visits nodes depth-first in file order. Record children are visited
// after the record's values. Returning false from fn skips the node's
// descendants.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		switch v := n.(type) {
		case *Record:
			Walk(v.Values, fn)
			Walk(v.Children, fn)
		case *RecordArray:
			for _, g := range v.Elements {
				Walk(g.Values, fn)
				Walk(g.Children, fn)
			}
		}
	}
}
