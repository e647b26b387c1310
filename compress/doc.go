// Package compress provides pluggable compression codecs for the catalog
// binary's body section (the byte-constant pool and default dictionary
// values, see catalog.Catalog.Encode).
//
// A catalog's constant pool rarely exceeds a few kilobytes, so compression
// here is about shrinking a catalog that ships over a control channel or
// sits on disk next to many template variants, not about the hot decode
// path — the wire protocol itself (stop-bit varints, PMaps) is never
// passed through this package.
//
// Four algorithms are available, selected by format.CompressionType:
//   - None: no compression, the default.
//   - Zstd: best ratio, moderate speed.
//   - S2: balanced ratio/speed, a Snappy derivative.
//   - LZ4: fastest decompression.
package compress
