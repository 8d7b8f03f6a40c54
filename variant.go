package esf

// Variant names an ESF on-disk variant.
type Variant uint8

const (
	VariantUnknown Variant = iota
	VariantA
	VariantE
	VariantF
	VariantME
	VariantRO
)

func (v Variant) String() string {
	switch v {
	case VariantA:
		return "ABCA"
	case VariantE:
		return "ABCE"
	case VariantF:
		return "ABCF"
	case VariantME:
		return "ME"
	case VariantRO:
		return "RO"
	default:
		return "unknown"
	}
}

// Magic numbers, as the little-endian uint32 at offset 0.
const (
	MagicA  uint32 = 0xABCA
	MagicE  uint32 = 0xABCE
	MagicF  uint32 = 0xABCF
	MagicME uint32 = 0x0906
	MagicRO uint32 = 0x0704

	magicMEFull uint32 = 0x00040906
	magicROFull uint32 = 0x00040704
)

// OffsetEncoding describes how a structural node stores its end offset.
type OffsetEncoding uint8

const (
	// OffsetUnresolved means the encoding is not known for the variant.
	OffsetUnresolved OffsetEncoding = iota
	// OffsetAbsolute is a uint32 absolute byte position.
	OffsetAbsolute
	// OffsetRelativeVarSize is a variable-length size relative to the
	// cursor just after the size.
	OffsetRelativeVarSize
)

// Codec is the immutable rule set of a variant.
type Codec struct {
	Variant       Variant
	Magic         uint32
	RecordOffsets OffsetEncoding
	ArrayOffsets  OffsetEncoding
	HasStringPool bool
}

var (
	codecA = Codec{Variant: VariantA, Magic: MagicA, RecordOffsets: OffsetRelativeVarSize, ArrayOffsets: OffsetUnresolved, HasStringPool: true}
	codecE = Codec{Variant: VariantE, Magic: MagicE, RecordOffsets: OffsetAbsolute, ArrayOffsets: OffsetAbsolute, HasStringPool: false}
	codecF = Codec{Variant: VariantF, Magic: MagicF, RecordOffsets: OffsetAbsolute, ArrayOffsets: OffsetAbsolute, HasStringPool: true}
)

// CodecFor maps a magic number to its codec.
func CodecFor(magic uint32) (Codec, error) {
	switch magic {
	case MagicA:
		return codecA, nil
	case MagicE:
		return codecE, nil
	case MagicF:
		return codecF, nil
	case MagicME, MagicRO, magicMEFull, magicROFull:
		return Codec{}, &UnsupportedVariantError{Magic: magic}
	default:
		return Codec{}, &UnknownFormatError{Magic: magic}
	}
}

// Resolve peeks the magic number and returns its codec. The cursor is left
// at offset 0 whatever the outcome.
func Resolve(r *Reader) (Codec, error) {
	if err := r.Seek(0); err != nil {
		return Codec{}, err
	}
	magic, err := r.ReadUint32()
	_ = r.Seek(0)
	if err != nil {
		return Codec{}, err
	}
	return CodecFor(magic)
}

// recognizedMagic reports whether magic names a decodable variant.
func recognizedMagic(magic uint32) bool {
	return magic == MagicA || magic == MagicE || magic == MagicF
}
