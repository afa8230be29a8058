package shadow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	raster "github.com/cityscale/shadowcast/internal/domain/raster"
	shadow "github.com/cityscale/shadowcast/internal/domain/shadow"
	. "github.com/smartystreets/goconvey/convey"
)

func flatGrid(rows, cols int, h float64) *raster.Grid {
	g, err := raster.New(rows, cols)
	if err != nil {
		panic(err)
	}
	g.Fill(h)
	return g
}

func TestEngineValidation(t *testing.T) {
	Convey("Given an engine", t, func() {
		eng := shadow.New()
		ctx := context.Background()

		Convey("When the height grid is missing", func() {
			_, err := eng.Compute(ctx, shadow.Input{Azimuth: 180, Elevation: 45, CellSize: 1})

			Convey("Then it fails with the invalid configuration kind", func() {
				So(errors.Is(err, shadow.ErrInvalidConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the cell size is not positive", func() {
			_, err := eng.Compute(ctx, shadow.Input{DSM: flatGrid(3, 3, 0), Azimuth: 180, Elevation: 45, CellSize: 0})

			Convey("Then it fails with the invalid configuration kind", func() {
				So(errors.Is(err, shadow.ErrInvalidConfiguration), ShouldBeTrue)
			})
		})

		Convey("When only one wall grid is supplied", func() {
			_, err := eng.Compute(ctx, shadow.Input{
				DSM:        flatGrid(3, 3, 0),
				WallHeight: flatGrid(3, 3, 0),
				Azimuth:    180, Elevation: 45, CellSize: 1,
			})

			Convey("Then it fails with the invalid configuration kind", func() {
				So(errors.Is(err, shadow.ErrInvalidConfiguration), ShouldBeTrue)
			})
		})

		Convey("When wall grid dimensions differ from the DSM", func() {
			_, err := eng.Compute(ctx, shadow.Input{
				DSM:        flatGrid(3, 3, 0),
				WallHeight: flatGrid(4, 3, 0),
				WallAspect: flatGrid(4, 3, 0),
				Azimuth:    180, Elevation: 45, CellSize: 1,
			})

			Convey("Then it fails with the invalid configuration kind", func() {
				So(errors.Is(err, shadow.ErrInvalidConfiguration), ShouldBeTrue)
			})
		})
	})
}

func TestEngineHorizonAndFlatTerrain(t *testing.T) {
	Convey("Given an engine", t, func() {
		eng := shadow.New()
		ctx := context.Background()

		Convey("When the sun is at or below the horizon", func() {
			dsm := flatGrid(4, 6, 0)
			dsm.Set(2, 3, 25)

			for _, el := range []float64{0, -0.5, -30} {
				el := el
				Convey(fmt.Sprintf("Then every cell is fully shadowed at elevation %g", el), func() {
					res, err := eng.Compute(ctx, shadow.Input{DSM: dsm, Azimuth: 120, Elevation: el, CellSize: 1})
					So(err, ShouldBeNil)
					So(res.Shadow.Rows(), ShouldEqual, 4)
					So(res.Shadow.Cols(), ShouldEqual, 6)
					for _, v := range res.Shadow.Values() {
						So(v, ShouldEqual, 0)
					}
				})
			}
		})

		Convey("When the terrain is perfectly flat", func() {
			res, err := eng.Compute(ctx, shadow.Input{DSM: flatGrid(6, 9, 3.5), Azimuth: 200, Elevation: 10, CellSize: 2})
			So(err, ShouldBeNil)

			Convey("Then every cell is sunlit and no sweep pass runs", func() {
				So(res.Steps, ShouldEqual, 0)
				for _, v := range res.Shadow.Values() {
					So(v, ShouldEqual, 1)
				}
			})
		})

		Convey("When the sun is at the zenith", func() {
			dsm := flatGrid(5, 5, 0)
			dsm.Set(2, 2, 10)
			res, err := eng.Compute(ctx, shadow.Input{DSM: dsm, Azimuth: 0, Elevation: 90, CellSize: 1})
			So(err, ShouldBeNil)

			Convey("Then nothing casts a shadow", func() {
				for _, v := range res.Shadow.Values() {
					So(v, ShouldEqual, 1)
				}
			})
		})
	})
}

func TestEngineSpikeScenario(t *testing.T) {
	Convey("Given a 5x5 flat grid with the sun due south at 45 degrees", t, func() {
		eng := shadow.New()
		ctx := context.Background()
		in := shadow.Input{DSM: flatGrid(5, 5, 0), Azimuth: 180, Elevation: 45, CellSize: 1}

		Convey("When the grid is left flat", func() {
			res, err := eng.Compute(ctx, in)
			So(err, ShouldBeNil)

			Convey("Then the whole grid is sunlit", func() {
				for _, v := range res.Shadow.Values() {
					So(v, ShouldEqual, 1)
				}
			})
		})

		Convey("When the center cell is raised to height 10", func() {
			in.DSM.Set(2, 2, 10)
			res, err := eng.Compute(ctx, in)
			So(err, ShouldBeNil)

			Convey("Then the down-sun run north of the spike is shadowed to the boundary", func() {
				So(res.Shadow.At(1, 2), ShouldEqual, 0)
				So(res.Shadow.At(0, 2), ShouldEqual, 0)
			})

			Convey("Then the spike roof and the up-sun cells stay sunlit", func() {
				So(res.Shadow.At(2, 2), ShouldEqual, 1)
				So(res.Shadow.At(3, 2), ShouldEqual, 1)
				So(res.Shadow.At(4, 2), ShouldEqual, 1)
			})

			Convey("Then neighboring columns are untouched", func() {
				for r := 0; r < 5; r++ {
					for _, c := range []int{0, 1, 3, 4} {
						So(res.Shadow.At(r, c), ShouldEqual, 1)
					}
				}
			})

			Convey("Then at least one sweep pass ran", func() {
				So(res.Steps, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given a tall grid long enough to hold the whole shadow", t, func() {
		eng := shadow.New()
		ctx := context.Background()
		dsm := flatGrid(14, 5, 0)
		dsm.Set(12, 2, 10)

		Convey("When computing with the sun due south at 45 degrees", func() {
			res, err := eng.Compute(ctx, shadow.Input{DSM: dsm, Azimuth: 180, Elevation: 45, CellSize: 1})
			So(err, ShouldBeNil)

			Convey("Then the shadow run is height/tan(elevation) cells long", func() {
				// height 10, tan(45) = 1: distances 1..9 shadowed, the cell
				// at distance 10 grazes the silhouette and stays sunlit.
				for d := 1; d <= 9; d++ {
					So(res.Shadow.At(12-d, 2), ShouldEqual, 0)
				}
				So(res.Shadow.At(2, 2), ShouldEqual, 1)
				So(res.Shadow.At(1, 2), ShouldEqual, 1)
				So(res.Shadow.At(0, 2), ShouldEqual, 1)
				So(res.Shadow.At(13, 2), ShouldEqual, 1)
			})
		})
	})
}

func TestEngineAzimuthDirections(t *testing.T) {
	Convey("Given a spike in the middle of a flat grid", t, func() {
		eng := shadow.New()
		ctx := context.Background()

		newSpike := func() *raster.Grid {
			g := flatGrid(9, 9, 0)
			g.Set(4, 4, 10)
			return g
		}

		cases := []struct {
			name       string
			azimuth    float64
			shadowed   [2]int // first shadowed cell in the cast direction
			sunlitSide [2]int // adjacent cell on the opposite side
		}{
			{"sun in the south casts north", 180, [2]int{3, 4}, [2]int{5, 4}},
			{"sun in the north casts south", 0, [2]int{5, 4}, [2]int{3, 4}},
			{"sun in the east casts west", 90, [2]int{4, 3}, [2]int{4, 5}},
			{"sun in the west casts east", 270, [2]int{4, 5}, [2]int{4, 3}},
		}

		for _, tc := range cases {
			Convey("When "+tc.name, func() {
				res, err := eng.Compute(ctx, shadow.Input{DSM: newSpike(), Azimuth: tc.azimuth, Elevation: 45, CellSize: 1})
				So(err, ShouldBeNil)
				So(res.Shadow.At(tc.shadowed[0], tc.shadowed[1]), ShouldEqual, 0)
				So(res.Shadow.At(tc.sunlitSide[0], tc.sunlitSide[1]), ShouldEqual, 1)
			})
		}

		Convey("When the sun sits diagonally in the southwest", func() {
			res, err := eng.Compute(ctx, shadow.Input{DSM: newSpike(), Azimuth: 225, Elevation: 45, CellSize: 1})
			So(err, ShouldBeNil)

			Convey("Then shadow falls toward the northeast through interpolated steps", func() {
				So(res.Shadow.At(3, 5), ShouldEqual, 0)
				So(res.Shadow.At(4, 4), ShouldEqual, 1)
				So(res.Shadow.At(5, 3), ShouldEqual, 1)
			})
		})
	})
}

func TestEngineMonotonicity(t *testing.T) {
	Convey("Given the same terrain with a spike at two heights", t, func() {
		eng := shadow.New()
		ctx := context.Background()

		lower := flatGrid(9, 5, 0)
		lower.Set(6, 2, 5)
		higher := flatGrid(9, 5, 0)
		higher.Set(6, 2, 8)

		in := shadow.Input{Azimuth: 180, Elevation: 45, CellSize: 1}
		in.DSM = lower
		resLow, err := eng.Compute(ctx, in)
		So(err, ShouldBeNil)
		in.DSM = higher
		resHigh, err := eng.Compute(ctx, in)
		So(err, ShouldBeNil)

		Convey("Then raising the spike never frees a shadowed down-sun cell", func() {
			for r := 0; r < 9; r++ {
				for c := 0; c < 5; c++ {
					if resLow.Shadow.At(r, c) == 0 {
						So(resHigh.Shadow.At(r, c), ShouldEqual, 0)
					}
				}
			}
		})

		Convey("Then up-sun cells stay sunlit in both", func() {
			So(resLow.Shadow.At(7, 2), ShouldEqual, 1)
			So(resLow.Shadow.At(8, 2), ShouldEqual, 1)
			So(resHigh.Shadow.At(7, 2), ShouldEqual, 1)
			So(resHigh.Shadow.At(8, 2), ShouldEqual, 1)
		})

		Convey("Then the taller spike reaches strictly further", func() {
			So(resLow.Shadow.At(1, 2), ShouldEqual, 1)
			So(resHigh.Shadow.At(1, 2), ShouldEqual, 0)
		})
	})
}

func TestEngineDeterminism(t *testing.T) {
	Convey("Given undulating terrain", t, func() {
		eng := shadow.New()
		ctx := context.Background()

		g := flatGrid(16, 16, 0)
		for r := 0; r < 16; r++ {
			for c := 0; c < 16; c++ {
				g.Set(r, c, float64((r*31+c*17)%13)+0.25*float64((r*7+c*3)%5))
			}
		}
		in := shadow.Input{DSM: g, Azimuth: 210.5, Elevation: 22.5, CellSize: 1.5}

		Convey("When computed twice", func() {
			a, err := eng.Compute(ctx, in)
			So(err, ShouldBeNil)
			b, err := eng.Compute(ctx, in)
			So(err, ShouldBeNil)

			Convey("Then the outputs are bit-identical", func() {
				So(b.Shadow.Values(), ShouldResemble, a.Shadow.Values())
				So(b.Steps, ShouldEqual, a.Steps)
			})

			Convey("Then the input grid was not mutated", func() {
				So(g.At(3, 3), ShouldEqual, float64((3*31+3*17)%13)+0.25*float64((3*7+3*3)%5))
			})
		})
	})
}

func TestEngineCancellation(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		eng := shadow.New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dsm := flatGrid(32, 32, 0)
		dsm.Set(30, 16, 50)

		Convey("When computing", func() {
			_, err := eng.Compute(ctx, shadow.Input{DSM: dsm, Azimuth: 180, Elevation: 10, CellSize: 1})

			Convey("Then the sweep stops with the context error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestEnginePenumbra(t *testing.T) {
	Convey("Given an engine with penumbra softening", t, func() {
		eng := shadow.New(shadow.WithPenumbra(4))
		ctx := context.Background()

		dsm := flatGrid(14, 5, 0)
		dsm.Set(12, 2, 10)

		Convey("When computing the spike scenario", func() {
			res, err := eng.Compute(ctx, shadow.Input{DSM: dsm, Azimuth: 180, Elevation: 45, CellSize: 1})
			So(err, ShouldBeNil)

			Convey("Then illumination fades with the occlusion excess", func() {
				// Excess at distance d is 10-d; penumbra 4 maps it to
				// 1 - excess/4 clamped to [0, 1].
				So(res.Shadow.At(4, 2), ShouldAlmostEqual, 0.5, 1e-9)  // excess 2
				So(res.Shadow.At(3, 2), ShouldAlmostEqual, 0.75, 1e-9) // excess 1
				So(res.Shadow.At(6, 2), ShouldAlmostEqual, 0, 1e-9)    // excess 4
				So(res.Shadow.At(11, 2), ShouldEqual, 0)               // excess 9
				So(res.Shadow.At(2, 2), ShouldEqual, 1)                // grazing
			})
		})
	})
}

func TestEngineWalls(t *testing.T) {
	Convey("Given a spike and a wall cell seven cells down-sun", t, func() {
		eng := shadow.New()
		ctx := context.Background()

		newInput := func(aspect float64) shadow.Input {
			dsm := flatGrid(12, 5, 0)
			dsm.Set(10, 2, 10)
			walls := flatGrid(12, 5, 0)
			walls.Set(3, 2, 5)
			aspects := flatGrid(12, 5, 0)
			aspects.Set(3, 2, aspect)
			return shadow.Input{
				DSM: dsm, WallHeight: walls, WallAspect: aspects,
				Azimuth: 180, Elevation: 45, CellSize: 1,
			}
		}

		Convey("When the wall faces the sun", func() {
			res, err := eng.Compute(ctx, newInput(180))
			So(err, ShouldBeNil)

			Convey("Then the terrain shadow climbs three of its five meters", func() {
				So(res.WallSunlit, ShouldNotBeNil)
				So(res.WallSunlit.At(3, 2), ShouldAlmostEqual, 0.4, 1e-9)
			})

			Convey("Then cells without walls report zero", func() {
				So(res.WallSunlit.At(5, 2), ShouldEqual, 0)
				So(res.WallSunlit.At(0, 0), ShouldEqual, 0)
			})
		})

		Convey("When the wall faces directly away from the sun", func() {
			res, err := eng.Compute(ctx, newInput(0))
			So(err, ShouldBeNil)

			Convey("Then its sunlit fraction is zero regardless of elevation", func() {
				So(res.WallSunlit.At(3, 2), ShouldEqual, 0)
			})
		})

		Convey("When the wall faces sideways but within ninety degrees", func() {
			res, err := eng.Compute(ctx, newInput(100))
			So(err, ShouldBeNil)

			Convey("Then the face still catches light", func() {
				So(res.WallSunlit.At(3, 2), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When no wall grids are supplied", func() {
			in := newInput(180)
			in.WallHeight = nil
			in.WallAspect = nil
			res, err := eng.Compute(ctx, in)
			So(err, ShouldBeNil)

			Convey("Then the result carries no wall grid", func() {
				So(res.WallSunlit, ShouldBeNil)
			})
		})
	})

	Convey("Given a sun-facing wall on open flat ground", t, func() {
		eng := shadow.New()
		ctx := context.Background()

		walls := flatGrid(6, 6, 0)
		walls.Set(2, 2, 8)
		aspects := flatGrid(6, 6, 0)
		aspects.Set(2, 2, 180)

		Convey("When nothing occludes it", func() {
			res, err := eng.Compute(ctx, shadow.Input{
				DSM: flatGrid(6, 6, 0), WallHeight: walls, WallAspect: aspects,
				Azimuth: 180, Elevation: 30, CellSize: 1,
			})
			So(err, ShouldBeNil)

			Convey("Then the whole face is sunlit", func() {
				So(res.WallSunlit.At(2, 2), ShouldEqual, 1)
			})
		})
	})
}

func TestEngineEdgeSpike(t *testing.T) {
	Convey("Given a spike on the down-sun boundary row", t, func() {
		eng := shadow.New()
		ctx := context.Background()
		dsm := flatGrid(5, 5, 0)
		dsm.Set(0, 2, 10)

		Convey("When the sun is due south", func() {
			res, err := eng.Compute(ctx, shadow.Input{DSM: dsm, Azimuth: 180, Elevation: 45, CellSize: 1})
			So(err, ShouldBeNil)

			Convey("Then the shadow leaves the grid and everything else stays sunlit", func() {
				for r := 0; r < 5; r++ {
					for c := 0; c < 5; c++ {
						So(res.Shadow.At(r, c), ShouldEqual, 1)
					}
				}
			})
		})
	})
}
