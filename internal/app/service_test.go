package app_test

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/smuotoe/geoelevate/internal/adapters/repository"
	"github.com/smuotoe/geoelevate/internal/app"
	"github.com/smuotoe/geoelevate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithWriter(io.Discard))
	os.Exit(m.Run())
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service on the in-memory gateway", t, func() {
		svc := app.New(
			app.WithTokenSecret("lifecycle-test"),
			app.WithQuestionCount(3),
			app.WithResultsDelay(10*time.Millisecond),
			app.WithRateLimit(time.Second, 5),
		)

		Convey("When started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the transport and presence surfaces are live", func() {
				So(svc.WSHandler(), ShouldNotBeNil)
				So(svc.ReachableSubset([]int64{1, 2}), ShouldBeEmpty)
				So(svc.ActiveMatches(), ShouldEqual, 0)
			})

			Convey("And a second Start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()

			Convey("Then the second Stop is harmless", func() {
				svc.Stop()
			})
		})
	})

	Convey("Given a service with an injected gateway", t, func() {
		gw := repository.NewMemoryGateway()
		svc := app.New(
			app.WithGateway(gw),
			app.WithTokenSecret("lifecycle-test"),
		)

		Convey("When started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the injected gateway is used as-is", func() {
				So(svc.ActiveMatches(), ShouldEqual, 0)
			})
		})
	})
}
