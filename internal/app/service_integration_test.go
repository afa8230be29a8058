package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/cityscale/shadowcast/internal/app"
	"github.com/cityscale/shadowcast/internal/adapters/repository"
	"github.com/cityscale/shadowcast/internal/domain/raster"
	. "github.com/smartystreets/goconvey/convey"
)

// buildingTerrain returns a flat plate with a single tall block in the
// middle, enough structure to cast a real shadow.
func buildingTerrain(size int, height float64) *raster.Grid {
	g, err := raster.New(size, size)
	if err != nil {
		panic(err)
	}
	lo, hi := size/2-2, size/2+2
	for r := lo; r < hi; r++ {
		for c := lo; c < hi; c++ {
			g.Set(r, c, height)
		}
	}
	return g
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service computing over a building", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(
			service.WithDSM(buildingTerrain(32, 20)),
			service.WithDeriveWalls(2),
			service.WithStore(store),
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When computing a morning shadow", func() {
			at := time.Date(2023, 6, 21, 14, 0, 0, 0, time.UTC) // 9am in Houston
			report, err := svc.CalculateShadow(ctx, at)

			Convey("Then the report carries both images", func() {
				So(err, ShouldBeNil)
				So(len(report.Heatmap), ShouldBeGreaterThan, 0)
				So(len(report.SurfacePlot), ShouldBeGreaterThan, 0)
			})

			Convey("Then the building casts some shadow", func() {
				So(err, ShouldBeNil)
				recent := svc.Recent()
				So(len(recent), ShouldEqual, 1)
				So(recent[0].ShadowedFraction, ShouldBeGreaterThan, 0)
				So(recent[0].ShadowedFraction, ShouldBeLessThan, 1)
				So(recent[0].Steps, ShouldBeGreaterThan, 0)
				So(recent[0].DurationMS, ShouldBeGreaterThanOrEqualTo, int64(0))
			})

			Convey("Then the snapshot reaches the store", func() {
				So(err, ShouldBeNil)

				deadline := time.After(5 * time.Second)
				for {
					count, countErr := store.Count(ctx)
					So(countErr, ShouldBeNil)
					if count >= 1 {
						break
					}
					select {
					case <-deadline:
						t.Fatal("snapshot never persisted")
					case <-time.After(20 * time.Millisecond):
					}
				}

				snap, latestErr := store.Latest(ctx)
				So(latestErr, ShouldBeNil)
				So(snap.Timestamp.UTC(), ShouldEqual, at)
				So(snap.Shadow, ShouldNotBeNil)
				So(snap.WallSunlit, ShouldNotBeNil)
				So(snap.Shadow.Rows(), ShouldEqual, 32)
			})
		})

		Convey("When computing several instants over the day", func() {
			instants := []time.Time{
				time.Date(2023, 6, 21, 13, 0, 0, 0, time.UTC),
				time.Date(2023, 6, 21, 18, 0, 0, 0, time.UTC),
				time.Date(2023, 6, 21, 23, 0, 0, 0, time.UTC),
			}
			for _, at := range instants {
				_, err := svc.CalculateShadow(ctx, at)
				So(err, ShouldBeNil)
			}

			Convey("Then history keeps them newest first", func() {
				recent := svc.Recent()
				So(len(recent), ShouldEqual, 3)
				So(recent[0].Timestamp.After(recent[2].Timestamp), ShouldBeTrue)
			})

			Convey("Then stats expose the pipeline state", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["store"], ShouldEqual, "memory")
				So(stats["has_walls"], ShouldEqual, true)
			})
		})
	})
}

func TestServiceMongoFallback(t *testing.T) {
	Convey("Given a service pointed at an unreachable Mongo", t, func() {
		svc := service.New(
			service.WithSyntheticTerrain(16, 3),
			service.WithMongo(repository.MongoConfig{
				Host:    "127.0.0.1",
				Port:    1, // nothing listens here
				Timeout: time.Second,
			}),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it falls back to the memory store", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["store"], ShouldEqual, "memory")
			})
		})
	})
}
