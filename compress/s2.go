package compress

import "github.com/klauspost/compress/s2"

// S2Codec compresses the catalog body with S2, a Snappy derivative that
// balances compression ratio against speed.
type S2Codec struct{}

var _ Codec = (*S2Codec)(nil)

// NewS2Codec creates an S2 codec.
func NewS2Codec() S2Codec { return S2Codec{} }

// Compress compresses data with S2's "better" mode. A catalog body is
// compressed once and decompressed by every loader afterward, so the
// extra match-finding effort over s2.Encode's default mode is spent where
// it's cheap (one-time Encode) rather than on the repeated read path.
func (c S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.EncodeBetter(nil, data), nil
}

// Decompress decompresses S2-compressed data.
func (c S2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
