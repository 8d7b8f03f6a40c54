package esf

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFormat      = errors.New("esf: unknown format")
	ErrUnsupportedVariant = errors.New("esf: unsupported variant")
	ErrOutOfBounds        = errors.New("esf: read out of bounds")
	ErrUnknownTypeCode    = errors.New("esf: unknown type code")
	ErrMalformedBoolean   = errors.New("esf: malformed boolean")
	ErrOffsetMismatch     = errors.New("esf: offset mismatch")
	ErrStringPoolLookup   = errors.New("esf: string pool lookup failed")
	ErrDepthExceeded      = errors.New("esf: nesting depth exceeded")
	ErrInvalidPayload     = errors.New("esf: invalid payload")
	ErrLimitExceeded      = errors.New("esf: limit exceeded")
	ErrValidation         = errors.New("esf: validation failed")
	ErrUnencodable        = errors.New("esf: value cannot be encoded")
)

// UnknownFormatError reports a magic number that names no ESF variant.
type UnknownFormatError struct {
	Magic uint32
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("%v: magic 0x%X", ErrUnknownFormat, e.Magic)
}

func (e *UnknownFormatError) Unwrap() error { return ErrUnknownFormat }

// UnsupportedVariantError reports a recognized variant, or a feature of one,
// that this package does not decode. Feature is empty when the whole variant
// is unsupported.
type UnsupportedVariantError struct {
	Magic   uint32
	Feature string
}

func (e *UnsupportedVariantError) Error() string {
	if e.Feature == "" {
		return fmt.Sprintf("%v: magic 0x%X", ErrUnsupportedVariant, e.Magic)
	}
	return fmt.Sprintf("%v: magic 0x%X: %s", ErrUnsupportedVariant, e.Magic, e.Feature)
}

func (e *UnsupportedVariantError) Unwrap() error { return ErrUnsupportedVariant }

// OutOfBoundsError reports a read that needed more bytes than remained.
type OutOfBoundsError struct {
	Offset    int
	Needed    int
	Available int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%v: offset %d needs %d bytes, %d available", ErrOutOfBounds, e.Offset, e.Needed, e.Available)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }

// UnknownTypeCodeError reports a type-code byte with no decoder. Offset is the
// position of the type-code byte itself.
type UnknownTypeCodeError struct {
	Code   byte
	Offset int
}

func (e *UnknownTypeCodeError) Error() string {
	return fmt.Sprintf("%v: 0x%02X at offset %d", ErrUnknownTypeCode, e.Code, e.Offset)
}

func (e *UnknownTypeCodeError) Unwrap() error { return ErrUnknownTypeCode }

// MalformedBooleanError reports a boolean payload byte outside the accepted set.
type MalformedBooleanError struct {
	Value  byte
	Offset int
}

func (e *MalformedBooleanError) Error() string {
	return fmt.Sprintf("%v: 0x%02X at offset %d", ErrMalformedBoolean, e.Value, e.Offset)
}

func (e *MalformedBooleanError) Unwrap() error { return ErrMalformedBoolean }

// OffsetMismatchError reports a body whose decode did not land exactly on its
// declared end offset. Expected is the declared end and Actual the cursor.
// Bound is non-zero when the declared end lies past the end of the enclosing
// body, which is then at offset Bound.
type OffsetMismatchError struct {
	Expected int
	Actual   int
	Bound    int
}

func (e *OffsetMismatchError) Error() string {
	if e.Bound != 0 {
		return fmt.Sprintf("%v: declared end %d past enclosing end %d, cursor at %d", ErrOffsetMismatch, e.Expected, e.Bound, e.Actual)
	}
	return fmt.Sprintf("%v: expected end %d, cursor at %d", ErrOffsetMismatch, e.Expected, e.Actual)
}

func (e *OffsetMismatchError) Unwrap() error { return ErrOffsetMismatch }

// StringPoolLookupError reports a string index missing from the footer pool.
type StringPoolLookupError struct {
	Index  uint32
	Offset int
}

func (e *StringPoolLookupError) Error() string {
	return fmt.Sprintf("%v: index %d at offset %d", ErrStringPoolLookup, e.Index, e.Offset)
}

func (e *StringPoolLookupError) Unwrap() error { return ErrStringPoolLookup }

// DepthExceededError reports record nesting deeper than Limits.MaxDepth.
type DepthExceededError struct {
	Depth  int
	Offset int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("%v: depth %d at offset %d", ErrDepthExceeded, e.Depth, e.Offset)
}

func (e *DepthExceededError) Unwrap() error { return ErrDepthExceeded }
