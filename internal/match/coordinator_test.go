package match_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/smuotoe/geoelevate/internal/adapters/repository"
	"github.com/smuotoe/geoelevate/internal/domain/model"
	"github.com/smuotoe/geoelevate/internal/domain/ratelimit"
	"github.com/smuotoe/geoelevate/internal/match"
	"github.com/smuotoe/geoelevate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithWriter(io.Discard))
	os.Exit(m.Run())
}

// fakeConn records everything sent to one participant.
type fakeConn struct {
	mu   sync.Mutex
	msgs []any
}

func (f *fakeConn) Send(v any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, v)
	return true
}

func (f *fakeConn) all(msgType string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, m := range f.msgs {
		if messageType(m) == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeConn) last(msgType string) (any, bool) {
	msgs := f.all(msgType)
	if len(msgs) == 0 {
		return nil, false
	}
	return msgs[len(msgs)-1], true
}

// waitFor polls until a message of the given type shows up, covering the
// timer-driven broadcasts.
func (f *fakeConn) waitFor(msgType string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(f.all(msgType)) > 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func messageType(v any) string {
	switch m := v.(type) {
	case match.MatchJoined:
		return m.Type
	case match.WaitingForOpponent:
		return m.Type
	case match.MatchStart:
		return m.Type
	case match.OpponentAnswered:
		return m.Type
	case match.QuestionResults:
		return m.Type
	case match.NextQuestion:
		return m.Type
	case match.MatchEnd:
		return m.Type
	case match.OpponentLeft:
		return m.Type
	case match.ErrorMessage:
		return m.Type
	case match.Pong:
		return m.Type
	default:
		return ""
	}
}

// fixedQuestions deals a canned sequence so answers are known in advance.
type fixedQuestions struct {
	qs []model.Question
}

func (f fixedQuestions) Generate(int64, int) []model.Question {
	return f.qs
}

const (
	playerA int64 = 10
	playerB int64 = 20
	matchID int64 = 1
)

func newFixture() (*match.Coordinator, *repository.MemoryGateway, *fakeConn, *fakeConn) {
	gw := repository.NewMemoryGateway()
	gw.PutMatch(model.Match{
		ID:           matchID,
		ParticipantA: playerA,
		ParticipantB: playerB,
		GameKind:     "capitals",
		Status:       model.StatusActive,
	})

	source := fixedQuestions{qs: []model.Question{
		{Prompt: "Q1", CorrectAnswer: "A", Options: []string{"A", "B", "C", "D"}},
		{Prompt: "Q2", CorrectAnswer: "B", Options: []string{"A", "B", "C", "D"}},
	}}

	c := match.NewCoordinator(gw, source,
		match.WithQuestionCount(2),
		match.WithResultsDelay(30*time.Millisecond),
		match.WithLimiter(ratelimit.New(ratelimit.WithQuota(100))),
	)
	return c, gw, &fakeConn{}, &fakeConn{}
}

func TestCoordinatorJoin(t *testing.T) {
	ctx := context.Background()

	Convey("Given an active match", t, func() {
		c, gw, connA, connB := newFixture()

		Convey("When an unknown match id is joined", func() {
			err := c.Join(ctx, playerA, 999, connA)
			So(errors.Is(err, match.ErrMatchNotFound), ShouldBeTrue)
		})

		Convey("When a non-participant joins", func() {
			err := c.Join(ctx, 33, matchID, connA)
			So(errors.Is(err, match.ErrNotParticipant), ShouldBeTrue)
		})

		Convey("When the first participant joins", func() {
			So(c.Join(ctx, playerA, matchID, connA), ShouldBeNil)

			Convey("Then it is acknowledged and told to wait", func() {
				joined, ok := connA.last(match.TypeMatchJoined)
				So(ok, ShouldBeTrue)
				So(joined.(match.MatchJoined).TotalQuestions, ShouldEqual, 2)
				So(connA.all(match.TypeWaitingForOpponent), ShouldHaveLength, 1)
				So(connA.all(match.TypeMatchStart), ShouldBeEmpty)
			})
		})

		Convey("When both participants join", func() {
			So(c.Join(ctx, playerA, matchID, connA), ShouldBeNil)
			So(c.Join(ctx, playerB, matchID, connB), ShouldBeNil)

			Convey("Then both receive match_start with question zero, sanitized", func() {
				for _, conn := range []*fakeConn{connA, connB} {
					msg, ok := conn.last(match.TypeMatchStart)
					So(ok, ShouldBeTrue)
					start := msg.(match.MatchStart)
					So(start.QuestionIndex, ShouldEqual, 0)
					So(start.TotalQuestions, ShouldEqual, 2)
					So(start.Question.Prompt, ShouldEqual, "Q1")
					So(start.Question.Options, ShouldHaveLength, 4)
				}
			})

			Convey("And a rejoin keeps the slot and resumes the current question", func() {
				connA2 := &fakeConn{}
				So(c.Join(ctx, playerA, matchID, connA2), ShouldBeNil)

				So(connA2.all(match.TypeMatchJoined), ShouldHaveLength, 1)
				resumed, ok := connA2.last(match.TypeNextQuestion)
				So(ok, ShouldBeTrue)
				So(resumed.(match.NextQuestion).QuestionIndex, ShouldEqual, 0)
				// no second match_start
				So(connA2.all(match.TypeMatchStart), ShouldBeEmpty)
			})

			Convey("And the state is tracked until torn down", func() {
				So(c.ActiveMatches(), ShouldEqual, 1)
				_ = gw
			})
		})
	})
}

func TestCoordinatorSubmitAnswer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started match", t, func() {
		c, gw, connA, connB := newFixture()
		So(c.Join(ctx, playerA, matchID, connA), ShouldBeNil)
		So(c.Join(ctx, playerB, matchID, connB), ShouldBeNil)

		Convey("When one side answers", func() {
			So(c.SubmitAnswer(ctx, playerA, matchID, 0, "A", 1000), ShouldBeNil)

			Convey("Then only the opponent is notified, without the answer", func() {
				So(connB.all(match.TypeOpponentAnswered), ShouldHaveLength, 1)
				So(connA.all(match.TypeOpponentAnswered), ShouldBeEmpty)
				So(connA.all(match.TypeQuestionResults), ShouldBeEmpty)
			})

			Convey("And the answer is persisted best-effort", func() {
				rows := gw.Answers(matchID)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].Identity, ShouldEqual, playerA)
				So(rows[0].Points, ShouldEqual, 240)
			})

			Convey("And a duplicate submission is a silent no-op", func() {
				So(c.SubmitAnswer(ctx, playerA, matchID, 0, "D", 5000), ShouldBeNil)
				So(gw.Answers(matchID), ShouldHaveLength, 1)
			})
		})

		Convey("When both sides answer", func() {
			So(c.SubmitAnswer(ctx, playerA, matchID, 0, "A", 1000), ShouldBeNil)
			So(c.SubmitAnswer(ctx, playerB, matchID, 0, "C", 2000), ShouldBeNil)

			Convey("Then both receive question_results with the reveal", func() {
				for _, conn := range []*fakeConn{connA, connB} {
					msg, ok := conn.last(match.TypeQuestionResults)
					So(ok, ShouldBeTrue)
					res := msg.(match.QuestionResults)
					So(res.QuestionIndex, ShouldEqual, 0)
					So(res.CorrectAnswer, ShouldEqual, "A")
					So(res.Results["10"].IsCorrect, ShouldBeTrue)
					So(res.Results["10"].Score, ShouldEqual, 240)
					So(res.Results["20"].IsCorrect, ShouldBeFalse)
					So(res.Results["20"].Score, ShouldEqual, 0)
					So(res.Scores["10"], ShouldEqual, 240)
					So(res.Scores["20"], ShouldEqual, 0)
				}
			})

			Convey("And the running totals reach the durable record", func() {
				rec, _ := gw.Match(matchID)
				So(rec.ScoreA, ShouldEqual, 240)
				So(rec.ScoreB, ShouldEqual, 0)
			})

			Convey("And after the pause both receive the next question", func() {
				So(connA.waitFor(match.TypeNextQuestion, time.Second), ShouldBeTrue)
				So(connB.waitFor(match.TypeNextQuestion, time.Second), ShouldBeTrue)

				msg, _ := connA.last(match.TypeNextQuestion)
				So(msg.(match.NextQuestion).QuestionIndex, ShouldEqual, 1)
				So(msg.(match.NextQuestion).Question.Prompt, ShouldEqual, "Q2")
			})
		})

		Convey("When the timing floor is violated", func() {
			err := c.SubmitAnswer(ctx, playerA, matchID, 0, "A", 50)

			Convey("Then the submission is rejected regardless of correctness", func() {
				So(errors.Is(err, match.ErrInvalidTiming), ShouldBeTrue)
				So(gw.Answers(matchID), ShouldBeEmpty)
			})
		})

		Convey("When a stranger or a dead match submits", func() {
			So(errors.Is(c.SubmitAnswer(ctx, 33, matchID, 0, "A", 1000), match.ErrNotParticipant), ShouldBeTrue)
			So(errors.Is(c.SubmitAnswer(ctx, playerA, 999, 0, "A", 1000), match.ErrMatchNotFound), ShouldBeTrue)
		})

		Convey("When submissions exceed the rate quota", func() {
			limited := match.NewCoordinator(gw, fixedQuestions{qs: []model.Question{
				{Prompt: "Q1", CorrectAnswer: "A", Options: []string{"A", "B"}},
			}},
				match.WithResultsDelay(30*time.Millisecond),
				match.WithLimiter(ratelimit.New(
					ratelimit.WithQuota(2),
					ratelimit.WithWindow(time.Minute),
				)),
			)
			lc := &fakeConn{}
			So(limited.Join(ctx, playerA, matchID, lc), ShouldBeNil)

			So(limited.SubmitAnswer(ctx, playerA, matchID, 0, "A", 1000), ShouldBeNil)
			// duplicate, still consumes a rate slot
			So(limited.SubmitAnswer(ctx, playerA, matchID, 0, "A", 1000), ShouldBeNil)
			err := limited.SubmitAnswer(ctx, playerA, matchID, 0, "A", 1000)

			Convey("Then the excess submission is denied", func() {
				So(errors.Is(err, match.ErrRateLimited), ShouldBeTrue)
			})
		})
	})
}

func playQuestion(ctx context.Context, c *match.Coordinator, index int, answerA, answerB string, elapsedA, elapsedB int) error {
	if err := c.SubmitAnswer(ctx, playerA, matchID, index, answerA, elapsedA); err != nil {
		return err
	}
	return c.SubmitAnswer(ctx, playerB, matchID, index, answerB, elapsedB)
}

func TestCoordinatorFinalize(t *testing.T) {
	ctx := context.Background()

	Convey("Given a match played to the end", t, func() {
		c, gw, connA, connB := newFixture()
		So(c.Join(ctx, playerA, matchID, connA), ShouldBeNil)
		So(c.Join(ctx, playerB, matchID, connB), ShouldBeNil)

		Convey("When one player outscores the other", func() {
			So(playQuestion(ctx, c, 0, "A", "C", 1000, 2000), ShouldBeNil)
			So(connA.waitFor(match.TypeNextQuestion, time.Second), ShouldBeTrue)
			So(playQuestion(ctx, c, 1, "B", "C", 1000, 2000), ShouldBeNil)

			So(connA.waitFor(match.TypeMatchEnd, time.Second), ShouldBeTrue)
			So(connB.waitFor(match.TypeMatchEnd, time.Second), ShouldBeTrue)

			Convey("Then match_end names the winner", func() {
				msg, _ := connA.last(match.TypeMatchEnd)
				end := msg.(match.MatchEnd)
				So(end.IsTie, ShouldBeFalse)
				So(end.WinnerID, ShouldNotBeNil)
				So(*end.WinnerID, ShouldEqual, playerA)
				So(end.Scores["10"], ShouldEqual, 480)
				So(end.Scores["20"], ShouldEqual, 0)
			})

			Convey("And the durable record is completed", func() {
				rec, _ := gw.Match(matchID)
				So(rec.Status, ShouldEqual, model.StatusCompleted)
				So(rec.ScoreA, ShouldEqual, 480)
				So(*rec.Winner, ShouldEqual, playerA)
			})

			Convey("And the state is destroyed, blocking late joins", func() {
				So(c.ActiveMatches(), ShouldEqual, 0)
				err := c.Join(ctx, playerA, matchID, &fakeConn{})
				So(errors.Is(err, match.ErrMatchNotFound), ShouldBeTrue)
			})
		})

		Convey("When both finish level", func() {
			So(playQuestion(ctx, c, 0, "A", "A", 1000, 1000), ShouldBeNil)
			So(connA.waitFor(match.TypeNextQuestion, time.Second), ShouldBeTrue)
			So(playQuestion(ctx, c, 1, "B", "B", 1000, 1000), ShouldBeNil)

			So(connB.waitFor(match.TypeMatchEnd, time.Second), ShouldBeTrue)

			Convey("Then the tie is explicit and carries no winner", func() {
				msg, _ := connB.last(match.TypeMatchEnd)
				end := msg.(match.MatchEnd)
				So(end.IsTie, ShouldBeTrue)
				So(end.WinnerID, ShouldBeNil)

				rec, _ := gw.Match(matchID)
				So(rec.Status, ShouldEqual, model.StatusCompleted)
				So(rec.Winner, ShouldBeNil)
			})
		})
	})
}

func TestCoordinatorLeave(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started match", t, func() {
		c, gw, connA, connB := newFixture()
		So(c.Join(ctx, playerA, matchID, connA), ShouldBeNil)
		So(c.Join(ctx, playerB, matchID, connB), ShouldBeNil)

		Convey("When one side disconnects mid-question", func() {
			So(c.SubmitAnswer(ctx, playerB, matchID, 0, "A", 1000), ShouldBeNil)
			c.Disconnect(ctx, playerA)

			Convey("Then the remaining side is told and wins by forfeit", func() {
				So(connB.all(match.TypeOpponentLeft), ShouldHaveLength, 1)
				So(connA.all(match.TypeOpponentLeft), ShouldBeEmpty)

				rec, _ := gw.Match(matchID)
				So(rec.Status, ShouldEqual, model.StatusCompleted)
				So(*rec.Winner, ShouldEqual, playerB)
				So(rec.ScoreB, ShouldEqual, 240)
			})

			Convey("And rejoining the dead match fails for both", func() {
				So(errors.Is(c.Join(ctx, playerA, matchID, &fakeConn{}), match.ErrMatchNotFound), ShouldBeTrue)
				So(errors.Is(c.Join(ctx, playerB, matchID, &fakeConn{}), match.ErrMatchNotFound), ShouldBeTrue)
			})
		})

		Convey("When a player leaves during the results pause", func() {
			So(playQuestion(ctx, c, 0, "A", "C", 1000, 2000), ShouldBeNil)
			c.Leave(ctx, playerB, matchID)

			Convey("Then the pending timer cannot revive the match", func() {
				time.Sleep(100 * time.Millisecond)
				So(connA.all(match.TypeNextQuestion), ShouldBeEmpty)
				So(c.ActiveMatches(), ShouldEqual, 0)

				rec, _ := gw.Match(matchID)
				So(rec.Status, ShouldEqual, model.StatusCompleted)
				So(*rec.Winner, ShouldEqual, playerA)
			})
		})

		Convey("When leaving twice", func() {
			c.Leave(ctx, playerA, matchID)
			c.Leave(ctx, playerA, matchID)

			Convey("Then the second call is harmless", func() {
				So(c.ActiveMatches(), ShouldEqual, 0)
			})
		})
	})
}

func TestCoordinatorEvictStale(t *testing.T) {
	ctx := context.Background()

	Convey("Given a live state whose durable match went terminal elsewhere", t, func() {
		c, gw, connA, connB := newFixture()
		So(c.Join(ctx, playerA, matchID, connA), ShouldBeNil)
		So(c.Join(ctx, playerB, matchID, connB), ShouldBeNil)
		So(c.ActiveMatches(), ShouldEqual, 1)

		winner := playerA
		So(gw.CompleteMatch(ctx, matchID, 0, 0, &winner), ShouldBeNil)

		Convey("When the reaper runs", func() {
			c.EvictStale(ctx)

			Convey("Then the orphaned state is removed", func() {
				So(c.ActiveMatches(), ShouldEqual, 0)
			})
		})
	})
}
