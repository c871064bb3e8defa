package datastore

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
var dec, _ = zstd.NewReader(nil)

// encodeValue serializes v as JSON. Documents larger than threshold bytes are
// zstd compressed; threshold <= 0 disables compression.
func encodeValue(v any, threshold int64) ([]byte, bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false, fmt.Errorf("encode value: %w", err)
	}
	if threshold > 0 && int64(len(b)) > threshold {
		return enc.EncodeAll(b, nil), true, nil
	}
	return b, false, nil
}

func decodeInto(data []byte, compressed bool, out any) error {
	data, err := inflate(data, compressed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}

// decodeInt decodes an integer value without passing it through float64, so
// values beyond 2^53 keep every digit. Integral floats such as 3.0 or 1e3 are
// accepted when they fit in an int64.
func decodeInt(data []byte, compressed bool) (int64, error) {
	data, err := inflate(data, compressed)
	if err != nil {
		return 0, err
	}
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil {
		return 0, fmt.Errorf("decode value: %w", err)
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, errNotInteger
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, errNotInteger
	}
	return int64(f), nil
}

var errNotInteger = errors.New("value is not an integer")

func inflate(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress value: %w", err)
	}
	return raw, nil
}

// addInt64 returns a+b, or false when the sum does not fit in an int64.
func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
