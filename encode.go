package esf

import (
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
)

// Encode writes doc to w in the variant named by doc.Header.Magic.
//
// The document is validated before writing (see [Document.Validate]).
// Encode writes:
//   - the header with doc.Header's padding and raw timestamp
//   - each root node, record values before record children
//   - the footer tag table and, for pooling variants, the string pool
//
// End offsets are computed from the written layout. Record arrays are written
// with their observed element count. For pooling variants every string value
// is interned into the pool, reusing ids already present in doc.Footer.Pool.
//
// UTF-16 strings may only hold runes up to U+FFFF: the decoder reads code
// units one by one, so a surrogate pair would not survive a round trip and is
// rejected with ErrUnencodable.
//
// Variant A records must have bodies of at most 127 bytes, the largest size
// its variable-length form can express, and variant A arrays are rejected
// with ErrUnsupportedVariant.
//
// By default no envelope is applied; use WithCompression to add one.
func Encode(w io.Writer, doc *Document, opts ...WriteOption) error {
	b, err := Marshal(doc, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Marshal returns the encoding of doc. See Encode.
func Marshal(doc *Document, opts ...WriteOption) ([]byte, error) {
	cfg := writeConfig{limits: defaultLimits(), compression: CompNone}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	codec, err := CodecFor(doc.Header.Magic)
	if err != nil {
		return nil, err
	}
	if len(doc.Footer.Tags) > cfg.limits.MaxTags {
		return nil, fmt.Errorf("%w: %d tags", ErrLimitExceeded, len(doc.Footer.Tags))
	}

	e := &nodeEncoder{
		w:        &writer{},
		codec:    codec,
		pool:     newInterner(doc.Footer.Pool),
		maxDepth: cfg.limits.MaxDepth,
	}
	lenOff := writeHeader(e.w, doc.Header)
	start := e.w.pos()
	for _, n := range doc.Nodes {
		if err := e.node(n, 0); err != nil {
			return nil, err
		}
	}
	blockLen := e.w.pos() - start
	if uint64(blockLen) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: node block of %d bytes", ErrUnencodable, blockLen)
	}
	e.w.patch(lenOff, uint32(blockLen))

	var pool map[uint32]string
	if codec.HasStringPool {
		pool = e.pool.pool
		if len(pool) > cfg.limits.MaxPoolEntries {
			return nil, fmt.Errorf("%w: %d pool entries", ErrLimitExceeded, len(pool))
		}
	}
	if err := writeFooter(e.w, codec, doc.Footer.Tags, pool, doc.Footer.PoolReserved); err != nil {
		return nil, err
	}
	return Wrap(cfg.compression, e.w.buf)
}

type nodeEncoder struct {
	w        *writer
	codec    Codec
	pool     *interner
	maxDepth int
}

func (e *nodeEncoder) node(n Node, depth int) error {
	switch v := n.(type) {
	case *Scalar:
		e.w.u8(v.Kind.ScalarCode())
		return e.value(v.Kind, v.Value)
	case *Array:
		if e.codec.ArrayOffsets != OffsetAbsolute {
			return &UnsupportedVariantError{Magic: e.codec.Magic, Feature: "array offsets"}
		}
		e.w.u8(v.Kind.ArrayCode())
		off := e.w.reserve()
		for _, x := range v.Values {
			if err := e.value(v.Kind, x); err != nil {
				return err
			}
		}
		return e.patchEnd(off)
	case *Record:
		return e.record(v, depth+1)
	case *RecordArray:
		return e.recordArray(v, depth+1)
	}
	return fmt.Errorf("%w: unsupported node %T", ErrValidation, n)
}

func (e *nodeEncoder) enter(depth int) error {
	if depth > e.maxDepth {
		return &DepthExceededError{Depth: depth, Offset: e.w.pos()}
	}
	return nil
}

// patchEnd stores the current position into the uint32 placeholder at off.
func (e *nodeEncoder) patchEnd(off int) error {
	end := e.w.pos()
	if uint64(end) > math.MaxUint32 {
		return fmt.Errorf("%w: offset %d exceeds uint32", ErrUnencodable, end)
	}
	e.w.patch(off, uint32(end))
	return nil
}

func (e *nodeEncoder) body(children, values []Node, depth int) error {
	for _, n := range values {
		if err := e.node(n, depth); err != nil {
			return err
		}
	}
	for _, n := range children {
		if err := e.node(n, depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *nodeEncoder) record(r *Record, depth int) error {
	if err := e.enter(depth); err != nil {
		return err
	}
	e.w.u8(TypeRecord)
	e.w.u16(r.TagIndex)
	e.w.u8(r.Version)
	switch e.codec.RecordOffsets {
	case OffsetAbsolute:
		off := e.w.reserve()
		if err := e.body(r.Children, r.Values, depth); err != nil {
			return err
		}
		return e.patchEnd(off)
	case OffsetRelativeVarSize:
		off := e.w.pos()
		e.w.u8(0)
		if err := e.body(r.Children, r.Values, depth); err != nil {
			return err
		}
		size := e.w.pos() - off - 1
		if size > 0x7f {
			return fmt.Errorf("%w: variant A record body of %d bytes", ErrUnencodable, size)
		}
		e.w.buf[off] = byte(size)
		return nil
	}
	return &UnsupportedVariantError{Magic: e.codec.Magic, Feature: "record offsets"}
}

func (e *nodeEncoder) recordArray(ra *RecordArray, depth int) error {
	if err := e.enter(depth); err != nil {
		return err
	}
	e.w.u8(TypeRecordArray)
	e.w.u16(ra.TagIndex)
	e.w.u8(ra.Version)
	endOff := e.w.reserve()
	e.w.u32(uint32(len(ra.Elements)))
	for _, g := range ra.Elements {
		off := e.w.reserve()
		if err := e.body(g.Children, g.Values, depth); err != nil {
			return err
		}
		if err := e.patchEnd(off); err != nil {
			return err
		}
	}
	return e.patchEnd(endOff)
}

// value writes the payload of one element; v has been validated against kind.
func (e *nodeEncoder) value(kind ElementKind, v any) error {
	switch kind {
	case KindBool:
		if v.(bool) {
			e.w.u8(0x01)
		} else {
			e.w.u8(0x00)
		}
	case KindInt8:
		e.w.u8(uint8(v.(int8)))
	case KindInt16:
		e.w.u16(uint16(v.(int16)))
	case KindInt32:
		e.w.u32(uint32(v.(int32)))
	case KindInt64:
		e.w.u64(uint64(v.(int64)))
	case KindUInt8:
		e.w.u8(v.(uint8))
	case KindUInt16:
		e.w.u16(v.(uint16))
	case KindUInt32:
		e.w.u32(v.(uint32))
	case KindUInt64:
		e.w.u64(v.(uint64))
	case KindFloat32:
		e.w.f32(v.(float32))
	case KindFloat64:
		e.w.f64(v.(float64))
	case KindCoord2D:
		c := v.(Coord2D)
		e.w.f32(c.X)
		e.w.f32(c.Y)
	case KindCoord3D:
		c := v.(Coord3D)
		e.w.f32(c.X)
		e.w.f32(c.Y)
		e.w.f32(c.Z)
	case KindAngle:
		e.w.u16(uint16(v.(Angle)))
	case KindUtf16String, KindAsciiString:
		s := v.(string)
		if e.codec.HasStringPool {
			id, err := e.pool.id(s)
			if err != nil {
				return err
			}
			e.w.u32(id)
			return nil
		}
		if kind == KindUtf16String {
			return e.w.utf16(s)
		}
		return e.w.ascii(s)
	default:
		return fmt.Errorf("%w: invalid element kind %d", ErrValidation, kind)
	}
	return nil
}

// interner assigns pool ids to strings, keeping the ids of an existing pool.
// New ids start above the largest existing id.
type interner struct {
	pool map[uint32]string
	ids  map[string]uint32
	next uint64
}

func newInterner(existing map[uint32]string) *interner {
	in := &interner{
		pool: make(map[uint32]string, len(existing)),
		ids:  make(map[string]uint32, len(existing)),
	}
	for _, id := range sortedPoolIDs(existing) {
		s := existing[id]
		in.pool[id] = s
		if _, ok := in.ids[s]; !ok {
			in.ids[s] = id
		}
		in.next = uint64(id) + 1
	}
	return in
}

func (in *interner) id(s string) (uint32, error) {
	if id, ok := in.ids[s]; ok {
		return id, nil
	}
	if in.next > math.MaxUint32 {
		return 0, fmt.Errorf("%w: string pool ids exhausted", ErrUnencodable)
	}
	id := uint32(in.next)
	if _, taken := in.pool[id]; taken {
		return 0, fmt.Errorf("%w: pool id %d already assigned", ErrUnencodable, id)
	}
	in.next++
	in.pool[id] = s
	in.ids[s] = id
	return id, nil
}

func sortedPoolIDs(pool map[uint32]string) []uint32 {
	return slices.Sorted(maps.Keys(pool))
}
