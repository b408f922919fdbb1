// Package repository is the persistence gateway for match records and the
// append-only answer log.
package repository

import (
	"context"
	"time"

	"github.com/smuotoe/geoelevate/internal/domain/model"
)

// AnswerRow is one append-only answer-log entry.
type AnswerRow struct {
	ID            string
	MatchID       int64
	Identity      int64
	QuestionIndex int
	Answer        string
	IsCorrect     bool
	ElapsedMs     int
	Points        int
	CreatedAt     time.Time
}

// Gateway provides the durable reads and writes the coordinator depends on.
// Each call is individually atomic; the coordinator never needs a
// cross-call transaction.
type Gateway interface {
	// ActiveMatch returns the match record when it exists and is active.
	// Returns ErrMatchNotFound otherwise.
	ActiveMatch(ctx context.Context, matchID int64) (model.Match, error)

	// RecordAnswer appends one row to the answer log.
	RecordAnswer(ctx context.Context, row AnswerRow) error

	// SaveProgress persists running totals after a question resolves.
	SaveProgress(ctx context.Context, matchID int64, scoreA, scoreB int) error

	// CompleteMatch marks an active match completed with final scores.
	// winner is nil for a tie. Forfeits use the same call with the
	// remaining participant as winner. A no-op when the match already
	// reached a terminal status.
	CompleteMatch(ctx context.Context, matchID int64, scoreA, scoreB int, winner *int64) error
}
