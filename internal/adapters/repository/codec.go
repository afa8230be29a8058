package repository

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/cityscale/shadowcast/internal/domain/raster"
)

// encodeGrid serializes a grid as gzip-compressed npy bytes, the same
// compressed-matrix shape the collection has always stored.
func encodeGrid(g *raster.Grid) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrCodec)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := npyio.Write(zw, g.ToDense()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	return buf.Bytes(), nil
}

// decodeGrid restores a grid from encodeGrid output.
func decodeGrid(data []byte) (*raster.Grid, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	defer zr.Close()

	var m mat.Dense
	if err := npyio.Read(zr, &m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}

	g, err := raster.FromDense(&m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	return g, nil
}
