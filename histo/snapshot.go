package histo

import (
	"encoding/json"
	"io"

	"github.com/klauspost/compress/zstd"
)

//WriteCompressed writes v as zstd-compressed JSON to w.
func WriteCompressed(w io.Writer, v any) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(v); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

//ReadCompressed decodes into v the zstd-compressed JSON read from r.
func ReadCompressed(r io.Reader, v any) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()
	return json.NewDecoder(zr).Decode(v)
}
