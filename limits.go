package esf

// Limits bounds the resources a single decode may consume. Zero fields take
// their defaults.
type Limits struct {
	MaxInputSize        int64 // bytes accepted by ReadDocument and envelope input
	MaxDecompressedSize int64 // raw ESF bytes after removing an envelope
	MaxDepth            int   // record nesting
	MaxTags             int
	MaxPoolEntries      int
}

func defaultLimits() Limits {
	return Limits{
		MaxInputSize:        1 << 30, // 1 GiB
		MaxDecompressedSize: 1 << 30,
		MaxDepth:            512,
		MaxTags:             65535,
		MaxPoolEntries:      65535,
	}
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxInputSize == 0 {
		l.MaxInputSize = d.MaxInputSize
	}
	if l.MaxDecompressedSize == 0 {
		l.MaxDecompressedSize = d.MaxDecompressedSize
	}
	if l.MaxDepth == 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxTags == 0 {
		l.MaxTags = d.MaxTags
	}
	if l.MaxPoolEntries == 0 {
		l.MaxPoolEntries = d.MaxPoolEntries
	}
	return l
}
