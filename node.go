package esf

import "context"

// Scope is the context a node decode runs against: the codec of the
// document and its already-decoded header and footer. Decoders receive a copy
// and never modify it; the footer pool map must not be changed while a decode
// is in progress.
type Scope struct {
	Codec  Codec
	Header Header
	Footer Footer
}

type scalarFunc func(r *Reader, s *Scope, kind ElementKind) (any, error)

// scalarDecoders is indexed by ElementKind.
var scalarDecoders = [KindAngle + 1]scalarFunc{
	KindBool:        readBool,
	KindInt8:        func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadInt8() },
	KindInt16:       func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadInt16() },
	KindInt32:       func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadInt32() },
	KindInt64:       func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadInt64() },
	KindUInt8:       func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadUint8() },
	KindUInt16:      func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadUint16() },
	KindUInt32:      func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadUint32() },
	KindUInt64:      func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadUint64() },
	KindFloat32:     func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadFloat32() },
	KindFloat64:     func(r *Reader, _ *Scope, _ ElementKind) (any, error) { return r.ReadFloat64() },
	KindCoord2D:     readCoord2D,
	KindCoord3D:     readCoord3D,
	KindUtf16String: readStringValue,
	KindAsciiString: readStringValue,
	KindAngle:       readAngle,
}

func lookupScalar(kind ElementKind) scalarFunc {
	if int(kind) >= len(scalarDecoders) {
		return nil
	}
	return scalarDecoders[kind]
}

func readBool(r *Reader, _ *Scope, _ ElementKind) (any, error) {
	off := r.Pos()
	b, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch b {
	case 0x12, 0x01:
		return true, nil
	case 0x13, 0x00:
		return false, nil
	}
	return nil, &MalformedBooleanError{Value: b, Offset: off}
}

func readAngle(r *Reader, _ *Scope, _ ElementKind) (any, error) {
	v, err := r.ReadUint16()
	return Angle(v), err
}

func readCoord2D(r *Reader, _ *Scope, _ ElementKind) (any, error) {
	var c Coord2D
	var err error
	if c.X, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if c.Y, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	return c, nil
}

func readCoord3D(r *Reader, _ *Scope, _ ElementKind) (any, error) {
	var c Coord3D
	var err error
	if c.X, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if c.Y, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if c.Z, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	return c, nil
}

// readStringValue reads a pool index for pooling codecs and an inline
// length-prefixed string otherwise.
func readStringValue(r *Reader, s *Scope, kind ElementKind) (any, error) {
	if !s.Codec.HasStringPool {
		return r.ReadString(kind)
	}
	off := r.Pos()
	id, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	v, ok := s.Footer.Lookup(id)
	if !ok {
		return nil, &StringPoolLookupError{Index: id, Offset: off}
	}
	return v, nil
}

// nodeDecoder holds the state of one decode pass. It is created per call and
// never shared.
type nodeDecoder struct {
	ctx       context.Context
	r         *Reader
	scope     *Scope
	maxDepth  int
	warnings  []Warning
	onWarning func(Warning)
}

// DecodeNode decodes the node introduced by typeCode, which the caller has
// already read. The node may not extend past the end of the buffer.
func DecodeNode(r *Reader, s Scope, typeCode byte) (Node, error) {
	d := &nodeDecoder{ctx: context.Background(), r: r, scope: &s, maxDepth: defaultLimits().MaxDepth}
	return d.dispatch(typeCode, r.Pos()-1, r.Len(), 0)
}

func (d *nodeDecoder) warn(w Warning) {
	d.warnings = append(d.warnings, w)
	if d.onWarning != nil {
		d.onWarning(w)
	}
}

// dispatch decodes one node. codeOff is the offset of the type-code byte and
// bound the end of the enclosing body.
func (d *nodeDecoder) dispatch(code byte, codeOff, bound, depth int) (Node, error) {
	switch {
	case code >= 0x01 && code < 0x41:
		kind := ElementKind(code)
		fn := lookupScalar(kind)
		if fn == nil {
			return nil, &UnknownTypeCodeError{Code: code, Offset: codeOff}
		}
		v, err := fn(d.r, d.scope, kind)
		if err != nil {
			return nil, err
		}
		return &Scalar{Kind: kind, Value: v}, nil
	case code >= 0x41 && code < TypeRecord:
		kind := ElementKind(code - arrayTypeBase)
		fn := lookupScalar(kind)
		if fn == nil {
			return nil, &UnknownTypeCodeError{Code: code, Offset: codeOff}
		}
		return d.array(kind, fn, bound)
	case code == TypeRecord:
		return d.record(codeOff, bound, depth+1)
	case code == TypeRecordArray:
		return d.recordArray(codeOff, bound, depth+1)
	}
	return nil, &UnknownTypeCodeError{Code: code, Offset: codeOff}
}

// checkEnd validates a declared end offset against the cursor and the
// enclosing bound before any of the body is read.
func (d *nodeDecoder) checkEnd(end, bound int) error {
	if end < d.r.Pos() {
		return &OffsetMismatchError{Expected: end, Actual: d.r.Pos()}
	}
	if end > bound {
		return &OffsetMismatchError{Expected: end, Actual: d.r.Pos(), Bound: bound}
	}
	return nil
}

func (d *nodeDecoder) landed(end int) error {
	if d.r.Pos() != end {
		return &OffsetMismatchError{Expected: end, Actual: d.r.Pos()}
	}
	return nil
}

func (d *nodeDecoder) array(kind ElementKind, fn scalarFunc, bound int) (Node, error) {
	if d.scope.Codec.ArrayOffsets != OffsetAbsolute {
		return nil, &UnsupportedVariantError{Magic: d.scope.Codec.Magic, Feature: "array offsets"}
	}
	end32, err := d.r.ReadUint32()
	if err != nil {
		return nil, err
	}
	end := int(end32)
	if err := d.checkEnd(end, bound); err != nil {
		return nil, err
	}
	a := &Array{Kind: kind}
	for d.r.Pos() < end {
		v, err := fn(d.r, d.scope, kind)
		if err != nil {
			return nil, err
		}
		a.Values = append(a.Values, v)
	}
	if err := d.landed(end); err != nil {
		return nil, err
	}
	return a, nil
}

func (d *nodeDecoder) enter(codeOff, depth int) error {
	if depth > d.maxDepth {
		return &DepthExceededError{Depth: depth, Offset: codeOff}
	}
	return d.ctx.Err()
}

func (d *nodeDecoder) record(codeOff, bound, depth int) (Node, error) {
	if err := d.enter(codeOff, depth); err != nil {
		return nil, err
	}
	rec := &Record{}
	var err error
	if rec.TagIndex, err = d.r.ReadUint16(); err != nil {
		return nil, err
	}
	if rec.Version, err = d.r.ReadUint8(); err != nil {
		return nil, err
	}
	var end int
	switch d.scope.Codec.RecordOffsets {
	case OffsetAbsolute:
		v, err := d.r.ReadUint32()
		if err != nil {
			return nil, err
		}
		end = int(v)
	case OffsetRelativeVarSize:
		size, err := d.r.ReadVarSize()
		if err != nil {
			return nil, err
		}
		end = d.r.Pos() + size
	default:
		return nil, &UnsupportedVariantError{Magic: d.scope.Codec.Magic, Feature: "record offsets"}
	}
	if err := d.checkEnd(end, bound); err != nil {
		return nil, err
	}
	err = d.until(end, depth, func(n Node) {
		if Structural(n) {
			rec.Children = append(rec.Children, n)
		} else {
			rec.Values = append(rec.Values, n)
		}
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *nodeDecoder) recordArray(codeOff, bound, depth int) (Node, error) {
	if err := d.enter(codeOff, depth); err != nil {
		return nil, err
	}
	ra := &RecordArray{}
	var err error
	if ra.TagIndex, err = d.r.ReadUint16(); err != nil {
		return nil, err
	}
	if ra.Version, err = d.r.ReadUint8(); err != nil {
		return nil, err
	}
	end32, err := d.r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if ra.DeclaredCount, err = d.r.ReadUint32(); err != nil {
		return nil, err
	}
	end := int(end32)
	if err := d.checkEnd(end, bound); err != nil {
		return nil, err
	}
	for d.r.Pos() < end {
		elemEnd32, err := d.r.ReadUint32()
		if err != nil {
			return nil, err
		}
		elemEnd := int(elemEnd32)
		if err := d.checkEnd(elemEnd, end); err != nil {
			return nil, err
		}
		var g Group
		err = d.until(elemEnd, depth, func(n Node) {
			if Structural(n) {
				g.Children = append(g.Children, n)
			} else {
				g.Values = append(g.Values, n)
			}
		})
		if err != nil {
			return nil, err
		}
		ra.Elements = append(ra.Elements, g)
	}
	if err := d.landed(end); err != nil {
		return nil, err
	}
	if len(ra.Elements) != int(ra.DeclaredCount) {
		d.warn(Warning{Offset: codeOff, TagIndex: ra.TagIndex, Declared: int(ra.DeclaredCount), Observed: len(ra.Elements)})
	}
	return ra, nil
}

// until decodes type-coded nodes until the cursor reaches end, handing each
// to emit. It serves both the root list and every record body; only the
// bound differs.
func (d *nodeDecoder) until(end, depth int, emit func(Node)) error {
	for d.r.Pos() < end {
		codeOff := d.r.Pos()
		code, err := d.r.ReadUint8()
		if err != nil {
			return err
		}
		n, err := d.dispatch(code, codeOff, end, depth)
		if err != nil {
			return err
		}
		emit(n)
	}
	return d.landed(end)
}

// roots decodes the node block into the document's root list.
func (d *nodeDecoder) roots() ([]Node, error) {
	block := d.scope.Header.NodeBlock
	if block.End > d.r.Len() {
		return nil, &OutOfBoundsError{Offset: block.Start, Needed: block.Len(), Available: d.r.Len() - block.Start}
	}
	if err := d.r.Seek(block.Start); err != nil {
		return nil, err
	}
	var nodes []Node
	err := d.until(block.End, 0, func(n Node) { nodes = append(nodes, n) })
	if err != nil {
		return nil, err
	}
	return nodes, nil
}
