// Package esf decodes ESF, the tree-structured binary format used by a family
// of strategy-game save and replay files.
//
// # File Format Overview
//
// An ESF file consists of:
//   - A 16-byte header: magic, zero padding, Unix timestamp, node block length
//   - A node block: a sequence of type-coded nodes (scalars, arrays, records
//     and record arrays) whose structural nodes declare their own end offsets
//   - A footer: the tag-name table referenced by records and, for pooling
//     variants, a UTF-16 string pool referenced by string values
//
// The magic number selects the variant. ABCE stores strings inline and uses
// absolute uint32 end offsets. ABCF uses absolute offsets and the string
// pool. ABCA uses the pool and a variable-length relative size for record
// ends; its array encoding is not known and is reported as unsupported.
//
// Because records refer to the footer, decoding reads the header, seeks past
// the node block to the footer, then returns to decode the node tree.
//
// # Basic Usage
//
//	data, _ := os.ReadFile("battle.replay")
//	doc, err := esf.Decode(data)
//	if err != nil {
//		var oe *esf.OffsetMismatchError
//		if errors.As(err, &oe) {
//			// oe.Expected, oe.Actual
//		}
//		return err
//	}
//	esf.Walk(doc.Nodes, func(n esf.Node) bool {
//		if r, ok := n.(*esf.Record); ok {
//			fmt.Println(r.Name(doc))
//		}
//		return true
//	})
//
// Input may be wrapped in a ZIP, Zstandard, LZ4, gzip or Brotli envelope; see
// [WithEnvelope]. [Encode] writes a Document back out and [Cache] keeps
// decoded documents for reuse across goroutines.
//
// # Security Considerations
//
// Every read is bounds-checked and every body must land exactly on its
// declared end offset. Nesting depth, footer table sizes and decompressed
// envelope sizes are bounded by [Limits].
package esf
