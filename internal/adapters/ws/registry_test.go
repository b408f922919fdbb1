package ws

import (
	"io"
	"os"
	"testing"

	"github.com/smuotoe/geoelevate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithWriter(io.Discard))
	os.Exit(m.Run())
}

func TestRegistry(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		r := NewRegistry()

		Convey("When a client registers", func() {
			c := newClient(10, nil)
			prev := r.Register(c)

			Convey("Then it is reachable and displaced nothing", func() {
				So(prev, ShouldBeNil)
				So(r.IsReachable(10), ShouldBeTrue)
				So(r.IsReachable(20), ShouldBeFalse)
				So(r.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same identity reconnects", func() {
			old := newClient(10, nil)
			r.Register(old)
			replacement := newClient(10, nil)
			prev := r.Register(replacement)

			Convey("Then the old connection is handed back for shutdown", func() {
				So(prev, ShouldEqual, old)
				So(r.Size(), ShouldEqual, 1)
			})

			Convey("And the old connection's late unregister is ignored", func() {
				So(r.Unregister(old), ShouldBeFalse)
				So(r.IsReachable(10), ShouldBeTrue)

				So(r.Unregister(replacement), ShouldBeTrue)
				So(r.IsReachable(10), ShouldBeFalse)
			})
		})

		Convey("When filtering a presence query", func() {
			r.Register(newClient(10, nil))
			r.Register(newClient(30, nil))

			Convey("Then only connected identities survive", func() {
				So(r.ReachableSubset([]int64{10, 20, 30, 40}), ShouldResemble, []int64{10, 30})
				So(r.ReachableSubset(nil), ShouldBeEmpty)
			})
		})
	})
}
