package repository_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/smuotoe/geoelevate/internal/adapters/repository"
	"github.com/smuotoe/geoelevate/internal/domain/model"
	"github.com/smuotoe/geoelevate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAnswerWriter(t *testing.T) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		t.Fatalf("logger init: %v", err)
	}
	ctx := context.Background()

	Convey("Given a writer in front of a memory gateway", t, func() {
		g := repository.NewMemoryGateway()
		g.PutMatch(model.Match{ID: 1, ParticipantA: 1, ParticipantB: 2, Status: model.StatusActive})

		w := repository.NewAnswerWriter(g, repository.WithWriterWorkers(1))
		w.Start(ctx)

		Convey("When rows are enqueued", func() {
			for i := 0; i < 3; i++ {
				So(w.RecordAnswer(ctx, repository.AnswerRow{
					MatchID: 1, Identity: 1, QuestionIndex: i, Answer: "x",
				}), ShouldBeNil)
			}
			w.Close()

			Convey("Then close drains them all to the gateway", func() {
				So(g.Answers(1), ShouldHaveLength, 3)
			})
		})

		Convey("When the gateway fails", func() {
			g.RecordAnswerErr = errors.New("disk on fire")

			So(w.RecordAnswer(ctx, repository.AnswerRow{MatchID: 1, Identity: 2}), ShouldBeNil)
			w.Close()

			Convey("Then the failure is swallowed and nothing is stored", func() {
				So(g.Answers(1), ShouldHaveLength, 0)
			})
		})
	})

	Convey("Given a writer with a tiny buffer and no workers started", t, func() {
		g := repository.NewMemoryGateway()
		w := repository.NewAnswerWriter(g, repository.WithWriteBuffer(1))

		Convey("When the queue overflows", func() {
			So(w.RecordAnswer(ctx, repository.AnswerRow{MatchID: 1}), ShouldBeNil)
			So(w.RecordAnswer(ctx, repository.AnswerRow{MatchID: 1}), ShouldBeNil)

			Convey("Then the overflow row was dropped rather than blocking", func() {
				w.Start(ctx)
				time.Sleep(50 * time.Millisecond)
				w.Close()
				So(g.Answers(1), ShouldHaveLength, 1)
			})
		})
	})
}
