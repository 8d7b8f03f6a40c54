package esf

type readConfig struct {
	limits       Limits
	envelope     Compression
	validateTags bool
	onWarning    func(Warning)
}

func newReadConfig(opts []ReadOption) readConfig {
	cfg := readConfig{limits: defaultLimits(), envelope: CompAuto}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	return cfg
}

type ReadOption func(*readConfig)

func WithReadLimits(l Limits) ReadOption {
	return func(c *readConfig) { c.limits = l }
}

// WithEnvelope selects the compression wrapped around the ESF bytes.
// CompAuto (the default) sniffs ZIP, Zstandard, LZ4 and gzip by their magic
// and otherwise treats the input as raw ESF. Brotli has no magic and must be
// selected explicitly.
func WithEnvelope(comp Compression) ReadOption {
	return func(c *readConfig) { c.envelope = comp }
}

// WithTagValidation makes Decode reject records whose tag index is outside
// the tag table.
func WithTagValidation(v bool) ReadOption {
	return func(c *readConfig) { c.validateTags = v }
}

// WithWarningHandler registers fn to receive each warning as it is found.
// Warnings are also recorded on Document.Warnings.
func WithWarningHandler(fn func(Warning)) ReadOption {
	return func(c *readConfig) { c.onWarning = fn }
}

type writeConfig struct {
	limits      Limits
	compression Compression
}

type WriteOption func(*writeConfig)

func WithWriteLimits(l Limits) WriteOption {
	return func(c *writeConfig) { c.limits = l }
}

// WithCompression wraps the encoded ESF bytes in an envelope. The default is
// CompNone.
func WithCompression(comp Compression) WriteOption {
	return func(c *writeConfig) { c.compression = comp }
}
