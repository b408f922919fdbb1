// Package match drives two-player trivia matches through their state
// machine: admission, question dealing, scoring, forfeits and finalization.
package match

import (
	"context"
	"errors"
	"time"

	"github.com/smuotoe/geoelevate/internal/adapters/repository"
	"github.com/smuotoe/geoelevate/internal/domain/model"
	"github.com/smuotoe/geoelevate/internal/domain/ratelimit"
	"github.com/smuotoe/geoelevate/internal/domain/scoring"
	"github.com/smuotoe/geoelevate/pkg/logger"
	"github.com/smuotoe/geoelevate/pkg/metrics"
)

// Default coordinator configuration constants.
const (
	defaultQuestionCount    = 5
	defaultResultsDelay     = 3 * time.Second
	defaultFinalizeAttempts = 3
	finalizeRetryDelay      = 100 * time.Millisecond
)

// Limiter gates answer submissions per (identity, match) pair.
type Limiter interface {
	Allow(ctx context.Context, identity, matchID int64) bool
}

// QuestionSource deals the immutable question sequence for a match.
type QuestionSource interface {
	Generate(matchID int64, n int) []model.Question
}

// AnswerRecorder appends rows to the durable answer log. Implementations
// may be asynchronous; failures here never corrupt in-memory progress.
type AnswerRecorder interface {
	RecordAnswer(ctx context.Context, row repository.AnswerRow) error
}

// Coordinator owns all business logic for live matches. Every read-modify-
// write of a State happens under that state's mutex, making racing joins
// and submissions for the same match safe.
type Coordinator struct {
	store     *Store
	gateway   repository.Gateway
	answers   AnswerRecorder
	limiter   Limiter
	scorer    scoring.Scorer
	questions QuestionSource

	questionCount    int
	resultsDelay     time.Duration
	finalizeAttempts int

	logger logger.Logger
}

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithLimiter sets the submission rate limiter.
func WithLimiter(l Limiter) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithScorer sets the answer scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.scorer = s
		}
	}
}

// WithAnswerRecorder routes answer-log writes, typically through the
// async writer.
func WithAnswerRecorder(r AnswerRecorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.answers = r
		}
	}
}

// WithQuestionCount sets how many questions each match deals.
func WithQuestionCount(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.questionCount = n
		}
	}
}

// WithResultsDelay sets the pause between question results and the next
// question.
func WithResultsDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.resultsDelay = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator wires a coordinator around the persistence gateway and a
// question source.
func NewCoordinator(gateway repository.Gateway, questions QuestionSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:            NewStore(),
		gateway:          gateway,
		answers:          gateway,
		limiter:          ratelimit.New(),
		scorer:           scoring.New(),
		questions:        questions,
		questionCount:    defaultQuestionCount,
		resultsDelay:     defaultResultsDelay,
		finalizeAttempts: defaultFinalizeAttempts,
		logger:           logger.Get().Named("coordinator"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ActiveMatches returns the number of matches currently in memory.
func (c *Coordinator) ActiveMatches() int {
	return c.store.Len()
}

// Join admits identity into matchID over conn. The first joiner triggers
// question generation and waits; the second starts the match. Re-joining
// replaces the slot's channel and keeps the accumulated score.
func (c *Coordinator) Join(ctx context.Context, identity, matchID int64, conn Conn) error {
	rec, err := c.gateway.ActiveMatch(ctx, matchID)
	if err != nil {
		if !errors.Is(err, repository.ErrMatchNotFound) {
			c.logger.Error(ctx, "match lookup failed",
				logger.Int64("matchID", matchID),
				logger.Error(err),
			)
		}
		return ErrMatchNotFound
	}
	if !rec.HasParticipant(identity) {
		return ErrNotParticipant
	}

	st, created := c.store.GetOrCreate(rec, func() []model.Question {
		return c.questions.Generate(matchID, c.questionCount)
	})
	if created {
		metrics.UpdateActiveMatches(c.store.Len())
		c.logger.Info(ctx, "match state created",
			logger.Int64("matchID", matchID),
			logger.Int("questions", len(st.questions)),
		)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.done {
		// lost a race against teardown
		return ErrMatchNotFound
	}

	slot, rejoin := st.slots[identity]
	if rejoin {
		slot.conn = conn
	} else {
		st.slots[identity] = &playerSlot{conn: conn}
	}

	conn.Send(MatchJoined{
		Type:           TypeMatchJoined,
		MatchID:        matchID,
		TotalQuestions: len(st.questions),
	})

	if rejoin && st.started {
		// resume the reconnecting side on the question in play
		conn.Send(NextQuestion{
			Type:          TypeNextQuestion,
			Question:      SanitizeQuestion(st.questions[st.current]),
			QuestionIndex: st.current,
		})
		return nil
	}

	if len(st.slots) == 2 && !st.started {
		st.started = true
		st.broadcastLocked(MatchStart{
			Type:           TypeMatchStart,
			Question:       SanitizeQuestion(st.questions[0]),
			QuestionIndex:  0,
			TotalQuestions: len(st.questions),
		})
		c.logger.Info(ctx, "match started", logger.Int64("matchID", matchID))
	} else if len(st.slots) == 1 {
		conn.Send(WaitingForOpponent{Type: TypeWaitingForOpponent})
	}

	return nil
}

// SubmitAnswer applies one timed submission for the question at
// questionIndex. Duplicates and stale indices are silent no-ops so network
// retries never surface as client errors.
func (c *Coordinator) SubmitAnswer(ctx context.Context, identity, matchID int64, questionIndex int, answer string, elapsedMs int) error {
	if !c.limiter.Allow(ctx, identity, matchID) {
		metrics.RecordRateLimitDenial()
		return ErrRateLimited
	}

	st, ok := c.store.Get(matchID)
	if !ok {
		return ErrMatchNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.done {
		return ErrMatchNotFound
	}
	slot, ok := st.slots[identity]
	if !ok {
		return ErrNotParticipant
	}

	if questionIndex < 0 || questionIndex >= len(st.questions) {
		metrics.RecordDuplicateAnswer()
		return nil
	}

	// The timing floor applies before the replay guard: an implausibly fast
	// submission is rejected even when it duplicates an accepted one.
	q := st.questions[questionIndex]
	res, err := c.scorer.Score(ctx, scoring.Input{
		Answer:        answer,
		CorrectAnswer: q.CorrectAnswer,
		ElapsedMs:     elapsedMs,
	})
	if err != nil {
		if errors.Is(err, scoring.ErrImpossibleTiming) {
			return ErrInvalidTiming
		}
		return err
	}

	if questionIndex != st.current {
		// stale retransmission for an already-resolved question
		metrics.RecordDuplicateAnswer()
		return nil
	}
	if _, dup := st.answers[questionIndex][identity]; dup {
		metrics.RecordDuplicateAnswer()
		return nil
	}

	if st.answers[questionIndex] == nil {
		st.answers[questionIndex] = make(map[int64]*model.AnswerRecord, 2)
	}
	st.answers[questionIndex][identity] = &model.AnswerRecord{
		Answer:    answer,
		IsCorrect: res.Correct,
		ElapsedMs: elapsedMs,
		Points:    res.Points,
	}
	slot.score += res.Points
	slot.answered = true
	metrics.RecordAnswerScored()

	if err := c.answers.RecordAnswer(ctx, repository.AnswerRow{
		MatchID:       matchID,
		Identity:      identity,
		QuestionIndex: questionIndex,
		Answer:        answer,
		IsCorrect:     res.Correct,
		ElapsedMs:     elapsedMs,
		Points:        res.Points,
	}); err != nil {
		// best-effort: a storage hiccup must not corrupt the live match
		metrics.RecordPersistenceError("record_answer")
		c.logger.Warn(ctx, "answer persistence failed",
			logger.Int64("matchID", matchID),
			logger.Int64("identity", identity),
			logger.Error(err),
		)
	}

	for id, other := range st.slots {
		if id != identity {
			other.conn.Send(OpponentAnswered{
				Type:          TypeOpponentAnswered,
				QuestionIndex: questionIndex,
			})
		}
	}

	if len(st.slots) == 2 && len(st.answers[st.current]) == len(st.slots) {
		c.resolveQuestionLocked(ctx, st)
	}

	return nil
}

// resolveQuestionLocked broadcasts results for the current question and
// schedules the advance timer. Callers must hold st.mu.
func (c *Coordinator) resolveQuestionLocked(ctx context.Context, st *State) {
	q := st.questions[st.current]

	results := make(map[string]PlayerResult, len(st.slots))
	scores := make(map[string]int, len(st.slots))
	for id, slot := range st.slots {
		rec := st.answers[st.current][id]
		results[identityKey(id)] = PlayerResult{
			Answer:    rec.Answer,
			IsCorrect: rec.IsCorrect,
			Score:     rec.Points,
			TimeMs:    rec.ElapsedMs,
		}
		scores[identityKey(id)] = slot.score
		slot.answered = false
	}

	st.broadcastLocked(QuestionResults{
		Type:          TypeQuestionResults,
		QuestionIndex: st.current,
		CorrectAnswer: q.CorrectAnswer,
		Results:       results,
		Scores:        scores,
	})

	scoreA, scoreB := st.scoresByParticipantLocked()
	if err := c.gateway.SaveProgress(ctx, st.rec.ID, scoreA, scoreB); err != nil {
		metrics.RecordPersistenceError("save_progress")
		c.logger.Warn(ctx, "progress persistence failed",
			logger.Int64("matchID", st.rec.ID),
			logger.Error(err),
		)
	}

	// Non-blocking pause before the next question; the generation check in
	// advance keeps a stale timer from touching a torn-down match.
	gen := st.generation
	matchID := st.rec.ID
	time.AfterFunc(c.resultsDelay, func() {
		c.advance(context.Background(), matchID, gen)
	})
}

// advance moves a match past the results pause: deal the next question or
// finalize after the last one.
func (c *Coordinator) advance(ctx context.Context, matchID int64, gen int) {
	st, ok := c.store.Get(matchID)
	if !ok {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.done || st.generation != gen {
		return
	}

	st.current++
	if st.current >= len(st.questions) {
		c.finalizeLocked(ctx, st)
		return
	}

	st.broadcastLocked(NextQuestion{
		Type:          TypeNextQuestion,
		Question:      SanitizeQuestion(st.questions[st.current]),
		QuestionIndex: st.current,
	})
}

// finalizeLocked resolves the winner, persists the outcome and destroys the
// state. Callers must hold st.mu.
func (c *Coordinator) finalizeLocked(ctx context.Context, st *State) {
	st.done = true
	st.generation++

	scoreA, scoreB := st.scoresByParticipantLocked()

	var winner *int64
	isTie := false
	switch {
	case scoreA > scoreB:
		w := st.rec.ParticipantA
		winner = &w
	case scoreB > scoreA:
		w := st.rec.ParticipantB
		winner = &w
	default:
		isTie = true
	}

	// Finalize-time persistence decides the durable outcome, so unlike the
	// per-answer writes it is retried before giving up.
	var err error
	for attempt := 0; attempt < c.finalizeAttempts; attempt++ {
		if err = c.gateway.CompleteMatch(ctx, st.rec.ID, scoreA, scoreB, winner); err == nil {
			break
		}
		time.Sleep(finalizeRetryDelay)
	}
	if err != nil {
		metrics.RecordPersistenceError("complete_match")
		c.logger.Error(ctx, "finalize persistence failed",
			logger.Int64("matchID", st.rec.ID),
			logger.Error(err),
		)
	}

	scores := make(map[string]int, len(st.slots))
	for id, slot := range st.slots {
		scores[identityKey(id)] = slot.score
	}
	st.broadcastLocked(MatchEnd{
		Type:     TypeMatchEnd,
		WinnerID: winner,
		Scores:   scores,
		IsTie:    isTie,
	})

	c.store.Remove(st.rec.ID)
	metrics.RecordMatchCompleted()
	metrics.UpdateActiveMatches(c.store.Len())
	c.logger.Info(ctx, "match finalized",
		logger.Int64("matchID", st.rec.ID),
		logger.Int("scoreA", scoreA),
		logger.Int("scoreB", scoreB),
		logger.Bool("tie", isTie),
	)
}

// Leave removes identity from matchID, forfeiting the match to the
// remaining participant.
func (c *Coordinator) Leave(ctx context.Context, identity, matchID int64) {
	st, ok := c.store.Get(matchID)
	if !ok {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	c.leaveLocked(ctx, st, identity)
}

// Disconnect treats a transport-level drop as a leave for every match the
// identity currently occupies.
func (c *Coordinator) Disconnect(ctx context.Context, identity int64) {
	for _, st := range c.store.All() {
		st.mu.Lock()
		c.leaveLocked(ctx, st, identity)
		st.mu.Unlock()
	}
}

// leaveLocked implements the forfeit transition. Callers must hold st.mu.
func (c *Coordinator) leaveLocked(ctx context.Context, st *State, identity int64) {
	if st.done {
		return
	}
	if _, ok := st.slots[identity]; !ok {
		return
	}

	st.done = true
	st.generation++

	scoreA, scoreB := st.scoresByParticipantLocked()
	delete(st.slots, identity)

	st.broadcastLocked(OpponentLeft{Type: TypeOpponentLeft})

	// Forfeit: the participant who stayed wins. The gateway's status guard
	// makes this a no-op when the match already went terminal.
	winner, _ := st.rec.Opponent(identity)
	if err := c.gateway.CompleteMatch(ctx, st.rec.ID, scoreA, scoreB, &winner); err != nil {
		metrics.RecordPersistenceError("complete_match")
		c.logger.Error(ctx, "forfeit persistence failed",
			logger.Int64("matchID", st.rec.ID),
			logger.Error(err),
		)
	}

	c.store.Remove(st.rec.ID)
	metrics.RecordMatchAbandoned()
	metrics.UpdateActiveMatches(c.store.Len())
	c.logger.Info(ctx, "match abandoned",
		logger.Int64("matchID", st.rec.ID),
		logger.Int64("leaver", identity),
		logger.Int64("winner", winner),
	)
}

// EvictStale tears down in-memory states whose durable match is no longer
// active. Runs behind the periodic reaper job.
func (c *Coordinator) EvictStale(ctx context.Context) {
	for _, st := range c.store.All() {
		matchID := st.MatchID()
		if _, err := c.gateway.ActiveMatch(ctx, matchID); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrMatchNotFound) {
			// gateway outage; leave states alone
			continue
		}

		st.mu.Lock()
		if !st.done {
			st.done = true
			st.generation++
			c.store.Remove(matchID)
			metrics.UpdateActiveMatches(c.store.Len())
			c.logger.Warn(ctx, "reaped stale match state", logger.Int64("matchID", matchID))
		}
		st.mu.Unlock()
	}
}
