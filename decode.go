package esf

import (
	"context"
	"fmt"
	"io"
)

// Decode decodes an ESF document held in data.
//
// The decoding process:
//  1. Removes a compression envelope, if any (see [WithEnvelope])
//  2. Resolves the codec from the magic number
//  3. Reads the fixed header and the node block extent
//  4. Seeks past the node block and reads the footer (tag table, string pool)
//  5. Returns to the node block and decodes the root node list
//
// Decode returns an error wrapping ErrUnknownFormat or ErrUnsupportedVariant
// for magics it cannot decode, and one of the typed errors in errors.go for
// malformed content. No partial Document is returned.
func Decode(data []byte, opts ...ReadOption) (*Document, error) {
	return DecodeContext(context.Background(), data, opts...)
}

// DecodeContext is like Decode but stops with ctx.Err() when ctx is done. The
// context is checked at every record boundary.
func DecodeContext(ctx context.Context, data []byte, opts ...ReadOption) (*Document, error) {
	cfg := newReadConfig(opts)
	return decode(ctx, data, cfg)
}

// ReadDocument reads r to EOF, up to Limits.MaxInputSize bytes, and decodes
// the result.
func ReadDocument(r io.Reader, opts ...ReadOption) (*Document, error) {
	cfg := newReadConfig(opts)
	data, err := readAll(io.LimitReader(r, cfg.limits.MaxInputSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > cfg.limits.MaxInputSize {
		return nil, fmt.Errorf("%w: input exceeds %d bytes", ErrLimitExceeded, cfg.limits.MaxInputSize)
	}
	return decode(context.Background(), data, cfg)
}

func decode(ctx context.Context, data []byte, cfg readConfig) (*Document, error) {
	raw, err := Unwrap(data, cfg.envelope, cfg.limits)
	if err != nil {
		return nil, err
	}
	r := NewReader(raw)
	codec, err := Resolve(r)
	if err != nil {
		return nil, err
	}
	header, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	footer, err := DecodeFooter(r, codec, header, cfg.limits)
	if err != nil {
		return nil, err
	}
	d := &nodeDecoder{
		ctx:       ctx,
		r:         r,
		scope:     &Scope{Codec: codec, Header: header, Footer: footer},
		maxDepth:  cfg.limits.MaxDepth,
		onWarning: cfg.onWarning,
	}
	nodes, err := d.roots()
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Codec:    codec,
		Header:   header,
		Footer:   footer,
		Nodes:    nodes,
		Warnings: d.warnings,
	}
	if cfg.validateTags {
		if err := validateTags(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
