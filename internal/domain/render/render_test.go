package render_test

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/cityscale/shadowcast/internal/domain/model"
	"github.com/cityscale/shadowcast/internal/domain/raster"
	"github.com/cityscale/shadowcast/internal/domain/render"
	. "github.com/smartystreets/goconvey/convey"
)

// pngSignature is the fixed eight byte prefix of every PNG stream.
var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func rampGrid(rows, cols int) *raster.Grid {
	g, err := raster.New(rows, cols)
	if err != nil {
		panic(err)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			g.Set(i, j, float64(i+j))
		}
	}
	return g
}

func TestHeatmap(t *testing.T) {
	Convey("Given a small renderer", t, func() {
		r := render.New(render.WithSize(120, 96))

		Convey("When rendering a graded grid", func() {
			out, err := r.Heatmap(rampGrid(8, 8))

			Convey("Then it produces a decodable PNG of the configured size", func() {
				So(err, ShouldBeNil)
				So(bytes.HasPrefix(out, pngSignature), ShouldBeTrue)

				cfg, err := png.DecodeConfig(bytes.NewReader(out))
				So(err, ShouldBeNil)
				So(cfg.Width, ShouldEqual, 120)
				So(cfg.Height, ShouldEqual, 96)
			})
		})

		Convey("When rendering a flat grid", func() {
			flat, newErr := raster.New(4, 4)
			So(newErr, ShouldBeNil)
			flat.Fill(1)
			out, err := r.Heatmap(flat)

			Convey("Then the degenerate value range still encodes", func() {
				So(err, ShouldBeNil)
				So(bytes.HasPrefix(out, pngSignature), ShouldBeTrue)
			})
		})

		Convey("When the grid is missing", func() {
			_, err := r.Heatmap(nil)

			Convey("Then it fails with the missing grid kind", func() {
				So(errors.Is(err, render.ErrMissingGrid), ShouldBeTrue)
			})
		})
	})
}

func TestRelief(t *testing.T) {
	Convey("Given a small renderer and a noon sun", t, func() {
		r := render.New(render.WithSize(80, 64))
		sun := model.SunPosition{AzimuthDeg: 180, ElevationDeg: 60}

		Convey("When rendering a graded surface under full light", func() {
			dsm := rampGrid(8, 8)
			illum, err := raster.New(8, 8)
			So(err, ShouldBeNil)
			illum.Fill(1)

			out, reliefErr := r.Relief(dsm, illum, sun, 1)

			Convey("Then it produces a decodable PNG of the configured size", func() {
				So(reliefErr, ShouldBeNil)

				cfg, err := png.DecodeConfig(bytes.NewReader(out))
				So(err, ShouldBeNil)
				So(cfg.Width, ShouldEqual, 80)
				So(cfg.Height, ShouldEqual, 64)
			})
		})

		Convey("When the grids differ in shape", func() {
			dsm := rampGrid(8, 8)
			illum, err := raster.New(6, 8)
			So(err, ShouldBeNil)

			_, reliefErr := r.Relief(dsm, illum, sun, 1)

			Convey("Then it fails with the dimension mismatch kind", func() {
				So(errors.Is(reliefErr, render.ErrDimensionMismatch), ShouldBeTrue)
			})
		})

		Convey("When either grid is missing", func() {
			_, err := r.Relief(nil, rampGrid(4, 4), sun, 1)

			Convey("Then it fails with the missing grid kind", func() {
				So(errors.Is(err, render.ErrMissingGrid), ShouldBeTrue)
			})
		})
	})
}
