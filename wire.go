package esf

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf16"
)

const headerSize = 16

// DecodeHeader reads the fixed header from the start of the buffer. The
// timestamp is only interpreted for recognized magics. The cursor is reset to
// 0 on return.
func DecodeHeader(r *Reader) (Header, error) {
	defer func() { _ = r.Seek(0) }()
	if err := r.Seek(0); err != nil {
		return Header{}, err
	}
	var h Header
	var err error
	if h.Magic, err = r.ReadUint32(); err != nil {
		return Header{}, err
	}
	if h.Padding, err = r.ReadUint32(); err != nil {
		return Header{}, err
	}
	if h.RawTimestamp, err = r.ReadUint32(); err != nil {
		return Header{}, err
	}
	nodeLen, err := r.ReadUint32()
	if err != nil {
		return Header{}, err
	}
	if recognizedMagic(h.Magic) {
		ts := time.Unix(int64(h.RawTimestamp), 0).UTC()
		h.Timestamp = &ts
	}
	h.Range = Range{Start: 0, End: headerSize}
	h.NodeBlock = Range{Start: headerSize, End: headerSize + int(nodeLen)}
	return h, nil
}

// DecodeFooter reads the tag table and, when the codec has one, the string
// pool from the end of the node block. A tag table cut short by the end of
// the buffer is accepted. The cursor is reset to 0 on return.
func DecodeFooter(r *Reader, c Codec, h Header, limits Limits) (Footer, error) {
	defer func() { _ = r.Seek(0) }()
	if err := r.Seek(h.NodeBlock.End); err != nil {
		return Footer{}, err
	}
	var f Footer
	n, err := r.ReadUint16()
	if err != nil {
		return Footer{}, err
	}
	if int(n) > limits.MaxTags {
		return Footer{}, fmt.Errorf("%w: %d tags", ErrLimitExceeded, n)
	}
	f.DeclaredTags = n
	for i := 0; i < int(n); i++ {
		if r.Remaining() == 0 {
			break
		}
		tag, err := r.ReadASCII()
		if err != nil {
			return Footer{}, err
		}
		f.Tags = append(f.Tags, tag)
	}
	if !c.HasStringPool {
		return f, nil
	}
	size, err := r.ReadUint16()
	if err != nil {
		return Footer{}, err
	}
	if int(size) > limits.MaxPoolEntries {
		return Footer{}, fmt.Errorf("%w: %d pool entries", ErrLimitExceeded, size)
	}
	if f.PoolReserved, err = r.ReadUint16(); err != nil {
		return Footer{}, err
	}
	f.HasPool = true
	f.Pool = make(map[uint32]string, size)
	for i := 0; i < int(size); i++ {
		id, err := r.ReadUint32()
		if err != nil {
			return Footer{}, err
		}
		s, err := r.ReadUTF16()
		if err != nil {
			return Footer{}, err
		}
		f.Pool[id] = s
	}
	return f, nil
}

// writer appends little-endian values to a growing buffer. Offsets handed
// out by reserve are absolute positions in that buffer.
type writer struct {
	buf []byte
}

func (w *writer) pos() int { return len(w.buf) }

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) f64(v float64) { w.u64(math.Float64bits(v)) }

// reserve writes a zero uint32 placeholder and returns its offset.
func (w *writer) reserve() int {
	off := len(w.buf)
	w.u32(0)
	return off
}

func (w *writer) patch(off int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[off:off+4], v)
}

func (w *writer) ascii(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: string of %d bytes", ErrUnencodable, len(s))
	}
	w.u16(uint16(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

func (w *writer) utf16(s string) error {
	runes := []rune(s)
	for _, r := range runes {
		if r > 0xFFFF {
			return fmt.Errorf("%w: rune %U needs a surrogate pair", ErrUnencodable, r)
		}
	}
	units := utf16.Encode(runes)
	if len(units) > math.MaxUint16 {
		return fmt.Errorf("%w: string of %d code units", ErrUnencodable, len(units))
	}
	w.u16(uint16(len(units)))
	for _, u := range units {
		w.u16(u)
	}
	return nil
}

func writeHeader(w *writer, h Header) (lenOff int) {
	w.u32(h.Magic)
	w.u32(h.Padding)
	w.u32(h.RawTimestamp)
	return w.reserve()
}

func writeFooter(w *writer, c Codec, tags []string, pool map[uint32]string, reserved uint16) error {
	if len(tags) > math.MaxUint16 {
		return fmt.Errorf("%w: %d tags", ErrUnencodable, len(tags))
	}
	w.u16(uint16(len(tags)))
	for _, t := range tags {
		if err := w.ascii(t); err != nil {
			return err
		}
	}
	if !c.HasStringPool {
		return nil
	}
	if len(pool) > math.MaxUint16 {
		return fmt.Errorf("%w: %d pool entries", ErrUnencodable, len(pool))
	}
	w.u16(uint16(len(pool)))
	w.u16(reserved)
	for _, id := range sortedPoolIDs(pool) {
		w.u32(id)
		if err := w.utf16(pool[id]); err != nil {
			return err
		}
	}
	return nil
}
