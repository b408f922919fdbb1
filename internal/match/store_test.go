package match_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/smuotoe/geoelevate/internal/domain/model"
	"github.com/smuotoe/geoelevate/internal/match"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStore(t *testing.T) {
	rec := model.Match{ID: 1, ParticipantA: 10, ParticipantB: 20, Status: model.StatusActive}
	questions := []model.Question{{Prompt: "q", CorrectAnswer: "a", Options: []string{"a", "b"}}}

	Convey("Given an empty store", t, func() {
		s := match.NewStore()

		Convey("When two joins race on GetOrCreate", func() {
			var calls atomic.Int32
			factory := func() []model.Question {
				calls.Add(1)
				return questions
			}

			var wg sync.WaitGroup
			states := make([]*match.State, 16)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					st, _ := s.GetOrCreate(rec, factory)
					states[i] = st
				}(i)
			}
			wg.Wait()

			Convey("Then the factory ran exactly once", func() {
				So(calls.Load(), ShouldEqual, 1)
			})

			Convey("And every caller observed the same state", func() {
				for _, st := range states {
					So(st, ShouldEqual, states[0])
				}
			})
		})

		Convey("When creating and fetching", func() {
			st, created := s.GetOrCreate(rec, func() []model.Question { return questions })
			So(created, ShouldBeTrue)

			again, createdAgain := s.GetOrCreate(rec, func() []model.Question {
				panic("factory must not rerun")
			})

			Convey("Then the second call reuses the state", func() {
				So(createdAgain, ShouldBeFalse)
				So(again, ShouldEqual, st)
			})

			Convey("And Get finds it", func() {
				got, ok := s.Get(rec.ID)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, st)
				So(s.Len(), ShouldEqual, 1)
			})
		})

		Convey("When removing", func() {
			s.GetOrCreate(rec, func() []model.Question { return questions })
			s.Remove(rec.ID)

			Convey("Then the state is gone and removal stays idempotent", func() {
				_, ok := s.Get(rec.ID)
				So(ok, ShouldBeFalse)

				s.Remove(rec.ID)
				So(s.Len(), ShouldEqual, 0)
			})
		})
	})
}
