package history_test

import (
	"testing"
	"time"

	"github.com/cityscale/shadowcast/internal/domain/history"
	"github.com/cityscale/shadowcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func record(i int) history.Record {
	return history.Record{
		Timestamp:        time.Date(2024, 6, 21, 12, 0, i, 0, time.UTC),
		Sun:              model.SunPosition{AzimuthDeg: float64(i), ElevationDeg: 45},
		ShadowedFraction: float64(i) / 100,
		Steps:            i,
	}
}

func TestLog(t *testing.T) {
	Convey("Given a log with capacity three", t, func() {
		l := history.New(history.WithCapacity(3))

		Convey("When empty", func() {
			So(l.Len(), ShouldEqual, 0)
			So(l.Cap(), ShouldEqual, 3)
			So(l.Recent(), ShouldBeEmpty)
		})

		Convey("When two records are added", func() {
			l.Add(record(1))
			l.Add(record(2))

			Convey("Then Recent returns them newest first", func() {
				got := l.Recent()
				So(got, ShouldHaveLength, 2)
				So(got[0].Steps, ShouldEqual, 2)
				So(got[1].Steps, ShouldEqual, 1)
			})
		})

		Convey("When more records than capacity are added", func() {
			for i := 1; i <= 5; i++ {
				l.Add(record(i))
			}

			Convey("Then only the newest three survive", func() {
				got := l.Recent()
				So(got, ShouldHaveLength, 3)
				So(got[0].Steps, ShouldEqual, 5)
				So(got[1].Steps, ShouldEqual, 4)
				So(got[2].Steps, ShouldEqual, 3)
				So(l.Len(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given a log built with no options", t, func() {
		l := history.New()

		Convey("Then it uses the default capacity", func() {
			So(l.Cap(), ShouldEqual, 32)
		})
	})
}
