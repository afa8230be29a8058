package oneshot_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cityscale/shadowcast/internal/adapters/dsm"
	"github.com/cityscale/shadowcast/internal/oneshot"
	"github.com/cityscale/shadowcast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given a oneshot run over synthetic terrain", t, func() {
		outDir := t.TempDir()
		cfg := &oneshot.Config{
			Size:      16,
			Seed:      3,
			Latitude:  29.73463,
			Longitude: -95.30052,
			At:        time.Date(2023, 6, 21, 18, 0, 0, 0, time.UTC),
			CellSize:  1.0,
			Walls:     true,
			OutDir:    outDir,
		}

		convey.Convey("When executed", func() {
			summary, err := oneshot.Run(context.Background(), cfg)

			convey.Convey("Then it reports the computation", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(summary.Rows, convey.ShouldEqual, 16)
				convey.So(summary.Cols, convey.ShouldEqual, 16)
				convey.So(summary.ElevationDeg, convey.ShouldBeGreaterThan, 0)
				convey.So(summary.ShadowedFraction, convey.ShouldBeBetweenOrEqual, 0, 1)
			})

			convey.Convey("Then all three artifacts exist", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, name := range []string{"heatmap.png", "relief.png", "shadow.npy"} {
					info, statErr := os.Stat(filepath.Join(outDir, name))
					convey.So(statErr, convey.ShouldBeNil)
					convey.So(info.Size(), convey.ShouldBeGreaterThan, 0)
				}
			})

			convey.Convey("Then the shadow grid round-trips", func() {
				convey.So(err, convey.ShouldBeNil)
				g, loadErr := dsm.Load(summary.ShadowPath)
				convey.So(loadErr, convey.ShouldBeNil)
				convey.So(g.Rows(), convey.ShouldEqual, 16)
				convey.So(g.Min(), convey.ShouldBeGreaterThanOrEqualTo, 0)
				convey.So(g.Max(), convey.ShouldBeLessThanOrEqualTo, 1)
			})
		})

		convey.Convey("When pointed at a missing DSM file", func() {
			cfg.DSMPath = filepath.Join(outDir, "missing.npy")
			_, err := oneshot.Run(context.Background(), cfg)

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
