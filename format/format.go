// Package format defines the small enumerations shared by the catalog's
// binary header and the compress package: the compression algorithm
// applied to a catalog's constant-pool/default-dictionary body, and the
// template-id resolution mode a catalog was built with.
package format

// CompressionType selects the algorithm used to compress a catalog body
// section. It mirrors the magic-number-adjacent flag nibble pattern used
// throughout the engine's fixed-layout headers.
type CompressionType uint8

const (
	// CompressionNone stores the section uncompressed. This is the default.
	CompressionNone CompressionType = 0x1
	// CompressionZstd compresses the section with Zstandard.
	CompressionZstd CompressionType = 0x2
	// CompressionS2 compresses the section with S2 (a Snappy derivative).
	CompressionS2 CompressionType = 0x3
	// CompressionLZ4 compresses the section with LZ4.
	CompressionLZ4 CompressionType = 0x4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// IsValid reports whether c is one of the defined compression types.
func (c CompressionType) IsValid() bool {
	switch c {
	case CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4:
		return true
	default:
		return false
	}
}

// TemplateIDMode selects how a decoder resolves the template id at the
// start of a message, per FAST 1.1's TID extension convention: an
// explicit stop-bit varint every message, or a catalog-declared default
// used whenever the transmitted id is the reserved sentinel value 0.
type TemplateIDMode uint8

const (
	// TemplateIDExplicit reads an explicit varint template id per message.
	TemplateIDExplicit TemplateIDMode = 0x1
	// TemplateIDPMapDefault reads the same leading varint as
	// TemplateIDExplicit, but treats a transmitted value of 0 as "use the
	// catalog's DefaultTemplateID" instead of naming template 0 directly.
	// A catalog built with this mode can never assign 0 as a real template
	// id.
	TemplateIDPMapDefault TemplateIDMode = 0x2
)

func (m TemplateIDMode) String() string {
	switch m {
	case TemplateIDExplicit:
		return "Explicit"
	case TemplateIDPMapDefault:
		return "PMapDefault"
	default:
		return "Unknown"
	}
}
