package esf

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names an envelope wrapped around raw ESF bytes.
type Compression uint16

const (
	CompNone Compression = 0x0
	CompZIP  Compression = 0x1
	CompZSTD Compression = 0x2
	CompLZ4  Compression = 0x3
	CompBR   Compression = 0x4
	CompGZIP Compression = 0x5

	// CompAuto sniffs the envelope from its magic bytes. Decode only.
	CompAuto Compression = 0xF
)

// envelopeEntry is the entry name written into ZIP envelopes.
const envelopeEntry = "save.esf"

var (
	magicZIP  = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZSTD = []byte{0x28, 0xB5, 0x2F, 0xFD}
	magicLZ4  = []byte{0x04, 0x22, 0x4D, 0x18}
	magicGZIP = []byte{0x1F, 0x8B}
)

// Function variables for testing injection.
var (
	newZstdWriter = func() (*zstd.Encoder, error) { return zstd.NewWriter(nil) }
	newZstdReader = func(maxMemory uint64) (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxMemory))
	}
	zipCreate   = func(zw *zip.Writer, name string) (io.Writer, error) { return zw.Create(name) }
	zipClose    = func(zw *zip.Writer) error { return zw.Close() }
	zipOpen     = func(zf *zip.File) (io.ReadCloser, error) { return zf.Open() }
	readAll     = io.ReadAll
	lz4Close    = func(w *lz4.Writer) error { return w.Close() }
	brotliClose = func(w *brotli.Writer) error { return w.Close() }
	brotliWrite = func(w *brotli.Writer, p []byte) (int, error) { return w.Write(p) }
	gzipClose   = func(w *gzip.Writer) error { return w.Close() }
)

func compressionName(c Compression) string {
	switch c {
	case CompNone:
		return "none"
	case CompZIP:
		return "zip"
	case CompZSTD:
		return "zstd"
	case CompLZ4:
		return "lz4"
	case CompBR:
		return "br"
	case CompGZIP:
		return "gzip"
	case CompAuto:
		return "auto"
	default:
		return "unknown"
	}
}

func (c Compression) String() string { return compressionName(c) }

// Sniff identifies an envelope by its leading magic bytes. Input that matches
// none of them is reported as CompNone.
func Sniff(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, magicZIP):
		return CompZIP
	case bytes.HasPrefix(data, magicZSTD):
		return CompZSTD
	case bytes.HasPrefix(data, magicLZ4):
		return CompLZ4
	case bytes.HasPrefix(data, magicGZIP):
		return CompGZIP
	}
	return CompNone
}

// Unwrap removes the envelope comp from data and returns the raw ESF bytes.
// CompAuto sniffs the envelope first. Output is bounded by
// limits.MaxDecompressedSize to guard against decompression bombs.
func Unwrap(data []byte, comp Compression, limits Limits) ([]byte, error) {
	limits = limits.withDefaults()
	if int64(len(data)) > limits.MaxInputSize {
		return nil, fmt.Errorf("%w: input of %d bytes", ErrLimitExceeded, len(data))
	}
	if comp == CompAuto {
		comp = Sniff(data)
	}
	limit := limits.MaxDecompressedSize
	switch comp {
	case CompNone:
		return data, nil
	case CompZIP:
		return zipDecompress(data, limit)
	case CompZSTD:
		return zstdDecompress(data, limit)
	case CompLZ4:
		return lz4Decompress(data, limit)
	case CompBR:
		return brotliDecompress(data, limit)
	case CompGZIP:
		return gzipDecompress(data, limit)
	}
	return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidPayload, comp)
}

// Wrap encloses raw ESF bytes in the envelope comp.
func Wrap(comp Compression, data []byte) ([]byte, error) {
	switch comp {
	case CompNone:
		return data, nil
	case CompZIP:
		return zipCompress(data)
	case CompZSTD:
		return zstdCompress(data)
	case CompLZ4:
		return lz4Compress(data)
	case CompBR:
		return brotliCompress(data)
	case CompGZIP:
		return gzipCompress(data)
	}
	return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidPayload, comp)
}

// readCapped reads r fully, failing once more than limit bytes are produced.
func readCapped(r io.Reader, limit int64, name string) ([]byte, error) {
	b, err := readAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: %s expanded beyond %d bytes", ErrLimitExceeded, name, limit)
	}
	return b, nil
}

func zipCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := zipCompressNamed(&buf, envelopeEntry, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zipCompressNamed(w io.Writer, name string, in []byte) error {
	zw := zip.NewWriter(w)
	entry, err := zipCreate(zw, name)
	if err != nil {
		_ = zipClose(zw)
		return err
	}
	if _, err := entry.Write(in); err != nil {
		_ = zipClose(zw)
		return err
	}
	return zipClose(zw)
}

// zipDecompress extracts the only entry of a ZIP archive. Archives with more
// than one entry, or whose entry is a directory, are rejected.
func zipDecompress(zipBytes []byte, limit int64) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, err
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("%w: zip must contain exactly one entry", ErrInvalidPayload)
	}
	zf := zr.File[0]
	if zf.FileInfo().IsDir() {
		return nil, fmt.Errorf("%w: zip entry must be a file", ErrInvalidPayload)
	}
	if zf.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: zip entry of %d bytes", ErrLimitExceeded, zf.UncompressedSize64)
	}
	rc, err := zipOpen(zf)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readCapped(rc, limit, "zip")
}

func zstdCompress(in []byte) ([]byte, error) {
	enc, err := newZstdWriter()
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

func zstdDecompress(in []byte, limit int64) ([]byte, error) {
	dec, err := newZstdReader(uint64(limit))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(in, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		return nil, fmt.Errorf("%w: zstd: %v", ErrLimitExceeded, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrInvalidPayload, err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: zstd expanded beyond %d bytes", ErrLimitExceeded, limit)
	}
	return out, nil
}

func lz4Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(in); err != nil {
		_ = lz4Close(zw)
		return nil, err
	}
	if err := lz4Close(zw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decompress(in []byte, limit int64) ([]byte, error) {
	return readCapped(lz4.NewReader(bytes.NewReader(in)), limit, "lz4")
}

func brotliCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	if _, err := brotliWrite(bw, in); err != nil {
		_ = brotliClose(bw)
		return nil, err
	}
	if err := brotliClose(bw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func brotliDecompress(in []byte, limit int64) ([]byte, error) {
	return readCapped(brotli.NewReader(bytes.NewReader(in)), limit, "brotli")
}

func gzipCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(in); err != nil {
		_ = gzipClose(gw)
		return nil, err
	}
	if err := gzipClose(gw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(in []byte, limit int64) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrInvalidPayload, err)
	}
	defer gr.Close()
	return readCapped(gr, limit, "gzip")
}
