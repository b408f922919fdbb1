package scoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smuotoe/geoelevate/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPointsScorer(t *testing.T) {
	Convey("Given a scorer with default configuration", t, func() {
		s := scoring.New()
		ctx := context.Background()

		Convey("When a correct answer arrives at 500ms", func() {
			res, err := s.Score(ctx, scoring.Input{
				Answer:        "Paris",
				CorrectAnswer: "Paris",
				ElapsedMs:     500,
			})

			Convey("Then it earns 100 base plus 145 bonus", func() {
				So(err, ShouldBeNil)
				So(res.Correct, ShouldBeTrue)
				So(res.Points, ShouldEqual, 245)
			})
		})

		Convey("When a correct answer arrives at 1000ms", func() {
			res, err := s.Score(ctx, scoring.Input{
				Answer:        "Paris",
				CorrectAnswer: "Paris",
				ElapsedMs:     1000,
			})

			Convey("Then it earns 240 points", func() {
				So(err, ShouldBeNil)
				So(res.Points, ShouldEqual, 240)
			})
		})

		Convey("When a correct answer arrives past the bonus window", func() {
			res, err := s.Score(ctx, scoring.Input{
				Answer:        "Paris",
				CorrectAnswer: "Paris",
				ElapsedMs:     16000,
			})

			Convey("Then only the base award remains", func() {
				So(err, ShouldBeNil)
				So(res.Correct, ShouldBeTrue)
				So(res.Points, ShouldEqual, 100)
			})
		})

		Convey("When an incorrect answer arrives instantly after the floor", func() {
			res, err := s.Score(ctx, scoring.Input{
				Answer:        "Lyon",
				CorrectAnswer: "Paris",
				ElapsedMs:     100,
			})

			Convey("Then it earns nothing regardless of speed", func() {
				So(err, ShouldBeNil)
				So(res.Correct, ShouldBeFalse)
				So(res.Points, ShouldEqual, 0)
			})
		})

		Convey("When the comparison differs only by case", func() {
			res, err := s.Score(ctx, scoring.Input{
				Answer:        "paris",
				CorrectAnswer: "Paris",
				ElapsedMs:     1000,
			})

			Convey("Then the exact-match rule treats it as wrong", func() {
				So(err, ShouldBeNil)
				So(res.Correct, ShouldBeFalse)
			})
		})

		Convey("When the submission is under the timing floor", func() {
			_, err := s.Score(ctx, scoring.Input{
				Answer:        "Paris",
				CorrectAnswer: "Paris",
				ElapsedMs:     99,
			})

			Convey("Then it is rejected even though the answer is correct", func() {
				So(errors.Is(err, scoring.ErrImpossibleTiming), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.Score(cancelled, scoring.Input{Answer: "x", CorrectAnswer: "x", ElapsedMs: 500})

			Convey("Then the cancellation surfaces", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a scorer with custom options", t, func() {
		s := scoring.New(
			scoring.WithBasePoints(10),
			scoring.WithBonusWindow(1000),
			scoring.WithMinElapsed(50),
		)

		Convey("When scoring inside the shrunken window", func() {
			res, err := s.Score(context.Background(), scoring.Input{
				Answer:        "A",
				CorrectAnswer: "A",
				ElapsedMs:     600,
			})

			Convey("Then the custom parameters drive the award", func() {
				So(err, ShouldBeNil)
				So(res.Points, ShouldEqual, 14) // 10 + (1000-600)/100
			})
		})
	})
}
