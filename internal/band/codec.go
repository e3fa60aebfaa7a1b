package band

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
)

// Rows are stored as little-endian float64 values followed by a null
// bitmap (bit set = null), gzip-compressed.

func encodeRow(row hisrgb.Row) ([]byte, error) {
	n := len(row)
	raw := make([]byte, 8*n+(n+7)/8)
	mask := raw[8*n:]

	for i, c := range row {
		if c.Null {
			mask[i/8] |= 1 << (i % 8)
			continue
		}
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(c.Value))
	}

	return gzipCompress(raw)
}

func decodeRow(data []byte, dst hisrgb.Row) error {
	raw, err := gzipDecompress(data)
	if err != nil {
		return fmt.Errorf("failed to decompress row: %w", err)
	}

	n := len(dst)
	if len(raw) != 8*n+(n+7)/8 {
		return fmt.Errorf("row payload has %d bytes, want %d for %d columns", len(raw), 8*n+(n+7)/8, n)
	}
	mask := raw[8*n:]

	for i := range dst {
		if mask[i/8]&(1<<(i%8)) != 0 {
			dst[i] = hisrgb.NullCell()
			continue
		}
		dst[i] = hisrgb.CellOf(math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:])))
	}
	return nil
}

// gzipCompress compresses data with gzip.
func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}

	if err := gw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// gzipDecompress decompresses gzip data.
func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
