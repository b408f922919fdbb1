package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smuotoe/geoelevate/internal/domain/model"
)

// MemoryGateway implements Gateway in memory, for tests and local development.
type MemoryGateway struct {
	mu      sync.Mutex
	matches map[int64]model.Match
	answers map[int64][]AnswerRow

	// RecordAnswerErr, when set, is returned by RecordAnswer. Tests use it
	// to exercise the best-effort persistence path.
	RecordAnswerErr error
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		matches: make(map[int64]model.Match),
		answers: make(map[int64][]AnswerRow),
	}
}

// PutMatch inserts or replaces a match record. Test and dev seeding hook;
// match creation itself belongs to the out-of-scope challenge flow.
func (g *MemoryGateway) PutMatch(m model.Match) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	g.matches[m.ID] = m
}

// Match returns the stored record regardless of status, for assertions.
func (g *MemoryGateway) Match(matchID int64) (model.Match, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.matches[matchID]
	return m, ok
}

// Answers returns the answer log for a match, for assertions.
func (g *MemoryGateway) Answers(matchID int64) []AnswerRow {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]AnswerRow, len(g.answers[matchID]))
	copy(out, g.answers[matchID])
	return out
}

// ActiveMatch returns the match when it exists and is active.
func (g *MemoryGateway) ActiveMatch(ctx context.Context, matchID int64) (model.Match, error) {
	if err := ctx.Err(); err != nil {
		return model.Match{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.matches[matchID]
	if !ok || m.Status != model.StatusActive {
		return model.Match{}, ErrMatchNotFound
	}
	return m, nil
}

// RecordAnswer appends one row to the in-memory answer log.
func (g *MemoryGateway) RecordAnswer(ctx context.Context, row AnswerRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.RecordAnswerErr != nil {
		return g.RecordAnswerErr
	}

	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	g.answers[row.MatchID] = append(g.answers[row.MatchID], row)
	return nil
}

// SaveProgress persists running totals for an active match.
func (g *MemoryGateway) SaveProgress(ctx context.Context, matchID int64, scoreA, scoreB int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.matches[matchID]
	if !ok || m.Status != model.StatusActive {
		return ErrMatchNotFound
	}
	m.ScoreA, m.ScoreB = scoreA, scoreB
	g.matches[matchID] = m
	return nil
}

// CompleteMatch transitions an active match to completed; a no-op for
// matches already terminal, mirroring the SQL status guard.
func (g *MemoryGateway) CompleteMatch(ctx context.Context, matchID int64, scoreA, scoreB int, winner *int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	if m.Status != model.StatusActive {
		return nil
	}

	now := time.Now()
	m.Status = model.StatusCompleted
	m.ScoreA, m.ScoreB = scoreA, scoreB
	m.Winner = winner
	m.CompletedAt = &now
	g.matches[matchID] = m
	return nil
}
