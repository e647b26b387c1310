package catalog

import (
	"encoding/binary"
	"fmt"

	"github.com/fastcodec/fast/compress"
	"github.com/fastcodec/fast/dict"
	"github.com/fastcodec/fast/errs"
	"github.com/fastcodec/fast/format"
	"github.com/fastcodec/fast/longhash"
)

// catalogMagic identifies the binary catalog format this package reads and
// writes. A host that persists catalogs across process restarts rejects
// anything that doesn't start with this magic rather than guessing.
const catalogMagic = "FASTCAT0"

const catalogVersion = 1

// headerSize is the fixed-layout portion every encoded catalog starts
// with: magic(8) + version(4) + templateCount(4) + scriptLength(4) +
// maxPMapBytes(4) + flag(4) + uncompressedBodyLen(4).
const headerSize = 8 + 4*6

// CatalogFlag packs the body's compression algorithm into the header the
// way section.NumericFlag packs a blob's encoding/compression bytes: one
// reserved uint16, one reserved byte, and the CompressionType byte.
type CatalogFlag struct {
	Reserved        uint16
	ReservedByte    uint8
	CompressionType format.CompressionType
}

func (f CatalogFlag) bytes() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b[0:2], f.Reserved)
	b[2] = f.ReservedByte
	b[3] = byte(f.CompressionType)

	return b
}

func parseCatalogFlag(b []byte) CatalogFlag {
	return CatalogFlag{
		Reserved:        binary.LittleEndian.Uint16(b[0:2]),
		ReservedByte:    b[2],
		CompressionType: format.CompressionType(b[3]),
	}
}

// CatalogOption configures Catalog.Encode.
type CatalogOption func(*catalogEncodeConfig)

type catalogEncodeConfig struct {
	compression format.CompressionType
}

// WithCompression selects the algorithm used to compress the catalog
// body. The default, CompressionNone, keeps a catalog with no string
// defaults/names byte-identical across repeated encodes, which is what
// the empty-template regression fixture depends on.
func WithCompression(c format.CompressionType) CatalogOption {
	return func(cfg *catalogEncodeConfig) {
		cfg.compression = c
	}
}

// Encode serializes c into the FASTCAT0 binary form. Two Encode calls on
// an identically-built Catalog (same event stream, same options) always
// produce byte-identical output: every section is written from a slice in
// its natural declared-order index, never from map iteration.
func (c *Catalog) Encode(opts ...CatalogOption) ([]byte, error) {
	cfg := catalogEncodeConfig{compression: format.CompressionNone}
	for _, opt := range opts {
		opt(&cfg)
	}

	body := c.encodeBody()

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	wireBody, err := codec.Compress(body)
	if err != nil {
		return nil, fmt.Errorf("catalog: compress body: %w", err)
	}

	flag := CatalogFlag{CompressionType: cfg.compression}

	header := make([]byte, headerSize)
	copy(header[0:8], catalogMagic)
	binary.LittleEndian.PutUint32(header[8:12], catalogVersion)
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(c.Templates)))
	binary.LittleEndian.PutUint32(header[16:20], uint32(len(c.Script)))
	binary.LittleEndian.PutUint32(header[20:24], uint32(c.MaxPMapBytes))
	copy(header[24:28], flag.bytes())
	binary.LittleEndian.PutUint32(header[28:32], uint32(len(body)))

	out := make([]byte, 0, len(header)+len(wireBody))
	out = append(out, header...)
	out = append(out, wireBody...)

	return out, nil
}

// DecodeCatalog parses data produced by Catalog.Encode back into a usable
// Catalog, without re-walking any event stream.
func DecodeCatalog(data []byte) (*Catalog, error) {
	if len(data) < headerSize {
		return nil, errs.CatalogErrorf("truncated header: %d bytes", len(data))
	}
	if string(data[0:8]) != catalogMagic {
		return nil, errs.CatalogErrorf("bad magic %q", data[0:8])
	}

	version := binary.LittleEndian.Uint32(data[8:12])
	if version != catalogVersion {
		return nil, errs.CatalogErrorf("unsupported catalog version %d", version)
	}

	templateCount := int(binary.LittleEndian.Uint32(data[12:16]))
	scriptLength := int(binary.LittleEndian.Uint32(data[16:20]))
	maxPMapBytes := int(binary.LittleEndian.Uint32(data[20:24]))
	flag := parseCatalogFlag(data[24:28])
	bodyLen := int(binary.LittleEndian.Uint32(data[28:32]))

	wireBody := data[headerSize:]

	codec, err := compress.GetCodec(flag.CompressionType)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	body, err := codec.Decompress(wireBody)
	if err != nil {
		return nil, fmt.Errorf("catalog: decompress body: %w", err)
	}
	if len(body) != bodyLen {
		return nil, errs.CatalogErrorf("body length mismatch: header says %d, got %d", bodyLen, len(body))
	}

	return decodeBody(body, templateCount, scriptLength, maxPMapBytes)
}

// encodeBody writes the packed token array, then one record per template
// (with its name and reset-group entries inline), then the default
// dictionary values, then the template-id mode byte and default template
// id, in that fixed order.
func (c *Catalog) encodeBody() []byte {
	var b []byte

	for _, tok := range c.Script {
		b = appendUint32(b, tok)
	}

	for _, t := range c.Templates {
		b = appendUint32(b, uint32(int32(t.ID)))
		b = appendUint32(b, uint32(t.ScriptStart))
		b = appendUint32(b, uint32(t.ScriptLimit))
		b = appendUint32(b, uint32(t.MaxPMapBits))
		b = appendUint32(b, uint32(t.MaxFragmentFields))
		b = appendUint32(b, uint32(t.MaxFragmentWords))
		b = appendUint32(b, uint32(len(t.Name)))
		b = append(b, t.Name...)
		b = appendUint32(b, uint32(len(t.ResetGroup)))
		for _, e := range t.ResetGroup {
			b = appendUint32(b, uint32(e.Kind))
			b = appendUint32(b, uint32(e.Slot))
		}
	}

	b = appendInt32Defaults(b, c.Int32Default, c.Int32HasDefault)
	b = appendInt64Defaults(b, c.Int64Default, c.Int64HasDefault)
	b = appendStrDefaults(b, c.StrDefault, c.StrHasDefault)

	b = append(b, byte(c.TemplateIDMode))
	b = appendUint32(b, uint32(c.DefaultTemplateID))

	return b
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendInt32Defaults(b []byte, values []int32, has []bool) []byte {
	b = appendUint32(b, uint32(len(values)))
	for i, v := range values {
		if has[i] {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
		b = appendUint32(b, uint32(v))
	}
	return b
}

func appendInt64Defaults(b []byte, values []int64, has []bool) []byte {
	b = appendUint32(b, uint32(len(values)))
	for i, v := range values {
		if has[i] {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v))
		b = append(b, tmp[:]...)
	}
	return b
}

func appendStrDefaults(b []byte, values [][]byte, has []bool) []byte {
	b = appendUint32(b, uint32(len(values)))
	for i, v := range values {
		if has[i] {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
		b = appendUint32(b, uint32(len(v)))
		b = append(b, v...)
	}
	return b
}

func decodeBody(b []byte, templateCount, scriptLength, maxPMapBytes int) (*Catalog, error) {
	r := &byteReader{data: b}

	var script []uint32 // nil when empty, as Load leaves it
	if scriptLength > 0 {
		script = make([]uint32, scriptLength)
	}
	for i := range script {
		v, err := r.uint32()
		if err != nil {
			return nil, fmt.Errorf("catalog: script token %d: %w", i, err)
		}
		script[i] = v
	}

	templates := make([]Template, templateCount)
	for i := range templates {
		id, err := r.uint32()
		if err != nil {
			return nil, fmt.Errorf("catalog: template %d id: %w", i, err)
		}

		start, err := r.uint32()
		if err != nil {
			return nil, err
		}
		limit, err := r.uint32()
		if err != nil {
			return nil, err
		}
		maxBits, err := r.uint32()
		if err != nil {
			return nil, err
		}
		maxFragmentFields, err := r.uint32()
		if err != nil {
			return nil, err
		}
		maxFragmentWords, err := r.uint32()
		if err != nil {
			return nil, err
		}

		nameLen, err := r.uint32()
		if err != nil {
			return nil, err
		}
		name, err := r.bytes(int(nameLen))
		if err != nil {
			return nil, err
		}

		resetCount, err := r.uint32()
		if err != nil {
			return nil, err
		}
		var resetGroup []dict.ResetEntry // nil when empty, as Load leaves it
		if resetCount > 0 {
			resetGroup = make([]dict.ResetEntry, resetCount)
		}
		for j := range resetGroup {
			kind, err := r.uint32()
			if err != nil {
				return nil, err
			}
			slot, err := r.uint32()
			if err != nil {
				return nil, err
			}
			resetGroup[j] = dict.ResetEntry{Kind: dict.Kind(kind), Slot: int(slot)}
		}

		templates[i] = Template{
			ID:                int32(id),
			Name:              string(name),
			ScriptStart:       int(start),
			ScriptLimit:       int(limit),
			MaxPMapBits:       int(maxBits),
			MaxFragmentFields: int(maxFragmentFields),
			MaxFragmentWords:  int(maxFragmentWords),
			ResetGroup:        resetGroup,
		}
	}

	int32Default, int32HasDefault, err := r.int32Defaults()
	if err != nil {
		return nil, err
	}
	int64Default, int64HasDefault, err := r.int64Defaults()
	if err != nil {
		return nil, err
	}
	strDefault, strHasDefault, err := r.strDefaults()
	if err != nil {
		return nil, err
	}

	templateIDModeByte, err := r.byte()
	if err != nil {
		return nil, err
	}
	defaultTemplateID, err := r.uint32()
	if err != nil {
		return nil, err
	}

	idx := longhash.New(bitsFor(len(templates)))
	for i, t := range templates {
		if err := idx.Insert(int64(t.ID), int64(i)); err != nil {
			return nil, fmt.Errorf("catalog: template id %d: %w", t.ID, err)
		}
	}

	cat := &Catalog{
		Templates:       templates,
		templateIndex:   idx,
		Script:          script,
		NumInt32Slots:   len(int32Default),
		NumInt64Slots:   len(int64Default),
		NumStrSlots:     len(strDefault),
		Int32Default:    int32Default,
		Int32HasDefault: int32HasDefault,
		Int64Default:    int64Default,
		Int64HasDefault: int64HasDefault,
		StrDefault:      strDefault,
		StrHasDefault:   strHasDefault,
		MaxPMapBytes:    maxPMapBytes,

		TemplateIDMode:    format.TemplateIDMode(templateIDModeByte),
		DefaultTemplateID: int32(defaultTemplateID),
	}

	if err := validateScript(cat); err != nil {
		return nil, err
	}

	return cat, nil
}

// byteReader is a minimal sequential cursor over a decoded catalog body,
// mirroring the offset-tracking style of section.ParseNumericHeader's
// fixed-slice reads but over a variable-length stream of sections.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) uint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, errs.CatalogErrorf("truncated body at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4

	return v, nil
}

func (r *byteReader) uint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, errs.CatalogErrorf("truncated body at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8

	return v, nil
}

func (r *byteReader) byte() (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, errs.CatalogErrorf("truncated body at offset %d", r.pos)
	}
	v := r.data[r.pos]
	r.pos++

	return v, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, errs.CatalogErrorf("truncated body at offset %d", r.pos)
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n

	return v, nil
}

func (r *byteReader) int32Defaults() ([]int32, []bool, error) {
	count, err := r.uint32()
	if err != nil {
		return nil, nil, err
	}

	values := make([]int32, count)
	has := make([]bool, count)
	for i := range values {
		hasByte, err := r.byte()
		if err != nil {
			return nil, nil, err
		}
		v, err := r.uint32()
		if err != nil {
			return nil, nil, err
		}
		values[i] = int32(v)
		has[i] = hasByte != 0
	}

	return values, has, nil
}

func (r *byteReader) int64Defaults() ([]int64, []bool, error) {
	count, err := r.uint32()
	if err != nil {
		return nil, nil, err
	}

	values := make([]int64, count)
	has := make([]bool, count)
	for i := range values {
		hasByte, err := r.byte()
		if err != nil {
			return nil, nil, err
		}
		v, err := r.uint64()
		if err != nil {
			return nil, nil, err
		}
		values[i] = int64(v)
		has[i] = hasByte != 0
	}

	return values, has, nil
}

func (r *byteReader) strDefaults() ([][]byte, []bool, error) {
	count, err := r.uint32()
	if err != nil {
		return nil, nil, err
	}

	values := make([][]byte, count)
	has := make([]bool, count)
	for i := range values {
		hasByte, err := r.byte()
		if err != nil {
			return nil, nil, err
		}
		n, err := r.uint32()
		if err != nil {
			return nil, nil, err
		}
		v, err := r.bytes(int(n))
		if err != nil {
			return nil, nil, err
		}
		values[i] = append([]byte(nil), v...)
		has[i] = hasByte != 0
	}

	return values, has, nil
}
