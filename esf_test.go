package esf

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }

// newBlock returns a writer positioned just past a blank header, so that
// reserve and patch deal in absolute file offsets.
func newBlock() *writer {
	return &writer{buf: make([]byte, headerSize)}
}

// finish fills in the header of a writer from newBlock and appends footer.
func finish(w *writer, magic uint32, footer []byte) []byte {
	binary.LittleEndian.PutUint32(w.buf[0:], magic)
	binary.LittleEndian.PutUint32(w.buf[12:], uint32(len(w.buf)-headerSize))
	return append(w.buf, footer...)
}

func footerBytes(t *testing.T, c Codec, tags []string, pool map[uint32]string) []byte {
	t.Helper()
	w := &writer{}
	if err := writeFooter(w, c, tags, pool, 0); err != nil {
		t.Fatal(err)
	}
	return w.buf
}

// beginRecord writes an absolute-offset record header and returns the offset
// of its end placeholder.
func beginRecord(w *writer, tag uint16, version uint8) int {
	w.u8(TypeRecord)
	w.u16(tag)
	w.u8(version)
	return w.reserve()
}

func endHere(w *writer, off int) {
	w.patch(off, uint32(w.pos()))
}

func mustDecode(t *testing.T, data []byte, opts ...ReadOption) *Document {
	t.Helper()
	doc, err := Decode(data, opts...)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return doc
}

func scalarU32(v uint32) *Scalar { return &Scalar{Kind: KindUInt32, Value: v} }

func checkIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
