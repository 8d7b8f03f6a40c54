package esf

import (
	"encoding/binary"
	"math"
	"strings"
)

// Reader is a bounds-checked little-endian cursor over an in-memory buffer.
// A Reader owns its cursor and must not be shared between goroutines.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Pos returns the cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the buffer length.
func (r *Reader) Len() int { return len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Seek moves the cursor to an absolute offset within [0, Len()].
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.buf) {
		return &OutOfBoundsError{Offset: off, Needed: 0, Available: len(r.buf)}
	}
	r.pos = off
	return nil
}

func (r *Reader) next(n int) ([]byte, error) {
	if n > len(r.buf)-r.pos {
		return nil, &OutOfBoundsError{Offset: r.pos, Needed: n, Available: len(r.buf) - r.pos}
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadBool reads one byte; any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	return b != 0, err
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads one byte as a signed value.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt16 reads a little-endian int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads a little-endian IEEE 754 float32.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a little-endian IEEE 754 float64.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadASCII reads a uint16 character count followed by that many bytes.
// Bytes are kept as-is.
func (r *Reader) ReadASCII() (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	b, err := r.next(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadUTF16 reads a uint16 code-unit count followed by that many
// little-endian UTF-16 code units. Each unit becomes one rune; surrogate
// pairs are not combined, so lone surrogates decode as U+FFFD.
func (r *Reader) ReadUTF16() (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	b, err := r.next(int(n) * 2)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(int(n))
	for i := 0; i < len(b); i += 2 {
		sb.WriteRune(rune(binary.LittleEndian.Uint16(b[i:])))
	}
	return sb.String(), nil
}

// ReadString reads a length-prefixed string of the given string kind.
func (r *Reader) ReadString(kind ElementKind) (string, error) {
	if kind == KindUtf16String {
		return r.ReadUTF16()
	}
	return r.ReadASCII()
}

// ReadVarSize reads the variable-length size used by variant A record
// headers. A byte with the high bit set continues the value as
// (value<<7) * (b&0x7f); the terminating byte adds (value<<7) + (b&0x7f).
func (r *Reader) ReadVarSize() (int, error) {
	var v uint64
	for {
		b, err := r.ReadUint8()
		if err != nil {
			return 0, err
		}
		if b&0x80 == 0 {
			v = (v << 7) + uint64(b&0x7f)
			break
		}
		v = (v << 7) * uint64(b&0x7f)
	}
	return int(v), nil
}
