package esf

import (
	"encoding/binary"
	"errors"
	"testing"
)

func magicBytes(m uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, m)
}

func TestResolve(t *testing.T) {
	cases := []struct {
		magic uint32
		want  Variant
		err   error
	}{
		{MagicA, VariantA, nil},
		{MagicE, VariantE, nil},
		{MagicF, VariantF, nil},
		{MagicME, 0, ErrUnsupportedVariant},
		{MagicRO, 0, ErrUnsupportedVariant},
		{0x00040906, 0, ErrUnsupportedVariant},
		{0x00040704, 0, ErrUnsupportedVariant},
		{0x12345678, 0, ErrUnknownFormat},
		{0, 0, ErrUnknownFormat},
	}
	for _, c := range cases {
		r := NewReader(append(magicBytes(c.magic), 0xAA, 0xBB))
		codec, err := Resolve(r)
		if r.Pos() != 0 {
			t.Fatalf("0x%X: cursor at %d", c.magic, r.Pos())
		}
		if c.err != nil {
			checkIs(t, err, c.err)
			continue
		}
		if err != nil {
			t.Fatalf("0x%X: %v", c.magic, err)
		}
		if codec.Variant != c.want || codec.Magic != c.magic {
			t.Fatalf("0x%X: got %+v", c.magic, codec)
		}
	}
}

func TestResolveErrorCarriesMagic(t *testing.T) {
	_, err := Resolve(NewReader(magicBytes(0xDEAD)))
	var ue *UnknownFormatError
	if !errors.As(err, &ue) || ue.Magic != 0xDEAD {
		t.Fatalf("got %v", err)
	}
	_, err = Resolve(NewReader(magicBytes(MagicRO)))
	var ve *UnsupportedVariantError
	if !errors.As(err, &ve) || ve.Magic != MagicRO || ve.Feature != "" {
		t.Fatalf("got %v", err)
	}
}

func TestResolveShortInput(t *testing.T) {
	r := NewReader([]byte{0xCE, 0xAB})
	_, err := Resolve(r)
	checkIs(t, err, ErrOutOfBounds)
	if r.Pos() != 0 {
		t.Fatalf("cursor at %d", r.Pos())
	}
}

func TestCodecRules(t *testing.T) {
	if codecA.RecordOffsets != OffsetRelativeVarSize || codecA.ArrayOffsets != OffsetUnresolved || !codecA.HasStringPool {
		t.Fatalf("A: %+v", codecA)
	}
	if codecE.RecordOffsets != OffsetAbsolute || codecE.ArrayOffsets != OffsetAbsolute || codecE.HasStringPool {
		t.Fatalf("E: %+v", codecE)
	}
	if codecF.RecordOffsets != OffsetAbsolute || codecF.ArrayOffsets != OffsetAbsolute || !codecF.HasStringPool {
		t.Fatalf("F: %+v", codecF)
	}
}

func TestVariantString(t *testing.T) {
	want := map[Variant]string{
		VariantA:       "ABCA",
		VariantE:       "ABCE",
		VariantF:       "ABCF",
		VariantME:      "ME",
		VariantRO:      "RO",
		VariantUnknown: "unknown",
	}
	for v, s := range want {
		if v.String() != s {
			t.Fatalf("%d: got %q want %q", v, v.String(), s)
		}
	}
}
