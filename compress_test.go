package esf

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("esf payload "), 64)
	for _, comp := range []Compression{CompNone, CompZIP, CompZSTD, CompLZ4, CompBR, CompGZIP} {
		wrapped, err := Wrap(comp, in)
		if err != nil {
			t.Fatalf("%v: %v", comp, err)
		}
		out, err := Unwrap(wrapped, comp, Limits{})
		if err != nil {
			t.Fatalf("%v: %v", comp, err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("%v: round trip mismatch", comp)
		}
	}
}

func TestSniff(t *testing.T) {
	in := []byte("raw")
	for _, comp := range []Compression{CompZIP, CompZSTD, CompLZ4, CompGZIP} {
		wrapped, err := Wrap(comp, in)
		if err != nil {
			t.Fatal(err)
		}
		if got := Sniff(wrapped); got != comp {
			t.Fatalf("%v: sniffed %v", comp, got)
		}
	}
	if got := Sniff(minimalE); got != CompNone {
		t.Fatalf("raw esf sniffed as %v", got)
	}
	if got := Sniff(nil); got != CompNone {
		t.Fatalf("empty input sniffed as %v", got)
	}
}

func TestCompressionString(t *testing.T) {
	want := map[Compression]string{
		CompNone: "none", CompZIP: "zip", CompZSTD: "zstd", CompLZ4: "lz4",
		CompBR: "br", CompGZIP: "gzip", CompAuto: "auto", Compression(0x9): "unknown",
	}
	for c, s := range want {
		if c.String() != s {
			t.Fatalf("%d: %q", c, c.String())
		}
	}
}

func TestUnwrap_Limits(t *testing.T) {
	in := bytes.Repeat([]byte{0}, 1000)
	limits := Limits{MaxDecompressedSize: 10}
	for _, comp := range []Compression{CompZIP, CompLZ4, CompBR, CompGZIP} {
		wrapped, err := Wrap(comp, in)
		if err != nil {
			t.Fatal(err)
		}
		_, err = Unwrap(wrapped, comp, limits)
		if !errors.Is(err, ErrLimitExceeded) {
			t.Fatalf("%v: expected ErrLimitExceeded, got %v", comp, err)
		}
	}
	zst, err := zstdCompress(in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zstdDecompress(zst, 10); err == nil {
		t.Fatal("expected error")
	}

	_, err = Unwrap(in, CompNone, Limits{MaxInputSize: 100})
	checkIs(t, err, ErrLimitExceeded)
}

func TestUnwrap_UnknownCompression(t *testing.T) {
	_, err := Unwrap([]byte("x"), Compression(0x9), Limits{})
	checkIs(t, err, ErrInvalidPayload)
}

func TestZIPDecompressErrors(t *testing.T) {
	// Multi-entry
	{
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		_, _ = zw.Create(envelopeEntry)
		_, _ = zw.Create("extra")
		_ = zw.Close()
		_, err := zipDecompress(buf.Bytes(), 100)
		checkIs(t, err, ErrInvalidPayload)
	}
	// Entry is a directory
	{
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		h := &zip.FileHeader{Name: "dir/"}
		h.SetMode(fs.ModeDir | 0o755)
		_, _ = zw.CreateHeader(h)
		_ = zw.Close()
		_, err := zipDecompress(buf.Bytes(), 100)
		checkIs(t, err, ErrInvalidPayload)
	}
	// Any entry name is accepted
	{
		var buf bytes.Buffer
		if err := zipCompressNamed(&buf, "battle.replay", minimalE); err != nil {
			t.Fatal(err)
		}
		out, err := zipDecompress(buf.Bytes(), 100)
		if err != nil || !bytes.Equal(out, minimalE) {
			t.Fatalf("got %v", err)
		}
	}
	// Not a zip archive
	if _, err := zipDecompress([]byte("PK\x03\x04garbage"), 100); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecompressionCorruptStreams(t *testing.T) {
	if _, err := zstdDecompress([]byte("notzstd"), 100); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("zstd: %v", err)
	}
	if _, err := lz4Decompress([]byte("notlz4"), 100); err == nil {
		t.Fatal("expected error")
	}
	if _, err := brotliDecompress([]byte("notbr"), 100); err == nil {
		t.Fatal("expected error")
	}
	if _, err := gzipDecompress([]byte("notgzip"), 100); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("gzip: %v", err)
	}
}

func TestCompressHelpers_ErrorPaths(t *testing.T) {
	// zip Create error via injection
	origCreate := zipCreate
	zipCreate = func(_ *zip.Writer, _ string) (io.Writer, error) { return nil, io.ErrClosedPipe }
	if _, err := zipCompress([]byte("x")); err == nil {
		zipCreate = origCreate
		t.Fatal("expected error")
	}
	zipCreate = origCreate

	// zip entry.Write error branch
	zipCreate = func(_ *zip.Writer, _ string) (io.Writer, error) { return errWriter{}, nil }
	if err := zipCompressNamed(io.Discard, envelopeEntry, []byte("x")); err == nil {
		zipCreate = origCreate
		t.Fatal("expected error")
	}
	zipCreate = origCreate

	// zip Close error via injection
	origClose := zipClose
	zipClose = func(_ *zip.Writer) error { return io.ErrClosedPipe }
	if err := zipCompressNamed(io.Discard, envelopeEntry, []byte("x")); err == nil {
		zipClose = origClose
		t.Fatal("expected error")
	}
	zipClose = origClose

	// lz4 Close error via injection
	origLZ4Close := lz4Close
	lz4Close = func(_ *lz4.Writer) error { return io.ErrClosedPipe }
	if _, err := lz4Compress([]byte("x")); err == nil {
		lz4Close = origLZ4Close
		t.Fatal("expected error")
	}
	lz4Close = origLZ4Close

	// brotli write and close errors via injection
	origBrotliWrite := brotliWrite
	brotliWrite = func(_ *brotli.Writer, _ []byte) (int, error) { return 0, io.ErrClosedPipe }
	if _, err := brotliCompress([]byte("x")); err == nil {
		brotliWrite = origBrotliWrite
		t.Fatal("expected error")
	}
	brotliWrite = origBrotliWrite

	origBrotliClose := brotliClose
	brotliClose = func(_ *brotli.Writer) error { return io.ErrClosedPipe }
	if _, err := brotliCompress([]byte("x")); err == nil {
		brotliClose = origBrotliClose
		t.Fatal("expected error")
	}
	brotliClose = origBrotliClose

	// gzip Close error via injection
	origGzipClose := gzipClose
	gzipClose = func(_ *gzip.Writer) error { return io.ErrClosedPipe }
	if _, err := gzipCompress([]byte("x")); err == nil {
		gzipClose = origGzipClose
		t.Fatal("expected error")
	}
	gzipClose = origGzipClose
}

func TestZstdConstructorInjection(t *testing.T) {
	origW := newZstdWriter
	newZstdWriter = func() (*zstd.Encoder, error) { return nil, io.ErrClosedPipe }
	if _, err := zstdCompress([]byte("x")); err == nil {
		newZstdWriter = origW
		t.Fatal("expected error")
	}
	newZstdWriter = origW

	origR := newZstdReader
	newZstdReader = func(uint64) (*zstd.Decoder, error) { return nil, io.ErrClosedPipe }
	if _, err := zstdDecompress([]byte("x"), 10); err == nil {
		newZstdReader = origR
		t.Fatal("expected error")
	}
	newZstdReader = origR
}

func TestZIPDecompress_InjectionErrorPaths(t *testing.T) {
	zipped, err := zipCompress(minimalE)
	if err != nil {
		t.Fatal(err)
	}

	origOpen := zipOpen
	zipOpen = func(_ *zip.File) (io.ReadCloser, error) { return nil, io.ErrClosedPipe }
	if _, err := zipDecompress(zipped, 100); err == nil {
		zipOpen = origOpen
		t.Fatal("expected error")
	}
	zipOpen = origOpen

	origReadAll := readAll
	readAll = func(io.Reader) ([]byte, error) { return nil, io.ErrUnexpectedEOF }
	if _, err := zipDecompress(zipped, 100); err == nil {
		readAll = origReadAll
		t.Fatal("expected error")
	}
	readAll = origReadAll
}
