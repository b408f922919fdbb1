// Package scoring defines the contract for turning a timed answer into points.
package scoring

import (
	"context"
)

// Default scoring configuration constants.
const (
	defaultBasePoints    = 100
	defaultBonusWindowMs = 15000
	defaultBonusDivisor  = 100
	defaultMinElapsedMs  = 100
)

// Option applies a configuration option to the PointsScorer.
type Option func(*PointsScorer)

// WithBasePoints sets the award for a correct answer before any bonus.
func WithBasePoints(points int) Option {
	return func(s *PointsScorer) {
		if points > 0 {
			s.basePoints = points
		}
	}
}

// WithBonusWindow sets the elapsed-time window over which the speed bonus
// decays to zero, in milliseconds.
func WithBonusWindow(ms int) Option {
	return func(s *PointsScorer) {
		if ms > 0 {
			s.bonusWindowMs = ms
		}
	}
}

// WithMinElapsed sets the floor below which a submission is rejected as
// not humanly possible, in milliseconds.
func WithMinElapsed(ms int) Option {
	return func(s *PointsScorer) {
		if ms > 0 {
			s.minElapsedMs = ms
		}
	}
}

// Input abstracts the submission fields needed for scoring.
type Input struct {
	Answer        string
	CorrectAnswer string
	ElapsedMs     int
}

// Result contains the verdict for a single submission.
type Result struct {
	Correct bool
	Points  int
}

// Scorer computes points from a timed submission.
type Scorer interface {
	// Score validates timing and computes points, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// PointsScorer implements Scorer with a base award plus a linear speed bonus.
type PointsScorer struct {
	basePoints    int
	bonusWindowMs int
	bonusDivisor  int
	minElapsedMs  int
}

// New creates a scorer with configuration options.
func New(opts ...Option) *PointsScorer {
	s := &PointsScorer{
		basePoints:    defaultBasePoints,
		bonusWindowMs: defaultBonusWindowMs,
		bonusDivisor:  defaultBonusDivisor,
		minElapsedMs:  defaultMinElapsedMs,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the verdict for the given submission.
//
// Answers are compared with a case-sensitive exact match. A correct answer
// earns basePoints plus max(0, (bonusWindowMs - elapsed) / bonusDivisor),
// so the bonus decays linearly and bottoms out at zero for slow answers.
// Incorrect answers earn nothing regardless of timing.
func (s *PointsScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if in.ElapsedMs < s.minElapsedMs {
		return Result{}, ErrImpossibleTiming
	}

	if in.Answer != in.CorrectAnswer {
		return Result{Correct: false, Points: 0}, nil
	}

	bonus := (s.bonusWindowMs - in.ElapsedMs) / s.bonusDivisor
	if bonus < 0 {
		bonus = 0
	}
	return Result{Correct: true, Points: s.basePoints + bonus}, nil
}
