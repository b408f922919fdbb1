// Package model contains domain models passed between layers.
package model

import "time"

// MatchStatus enumerates the lifecycle states of a durable match record.
type MatchStatus string

const (
	StatusPending   MatchStatus = "pending"
	StatusActive    MatchStatus = "active"
	StatusCompleted MatchStatus = "completed"
	StatusCancelled MatchStatus = "cancelled"
)

// Match mirrors the durable record owned by the persistence gateway.
// The coordinator reads it to admit players and writes it on progress,
// forfeit and finalization.
type Match struct {
	ID           int64
	ParticipantA int64
	ParticipantB int64
	GameKind     string
	Status       MatchStatus
	ScoreA       int
	ScoreB       int
	Winner       *int64 // nil while undecided and on ties
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// HasParticipant reports whether id is one of the two players.
func (m Match) HasParticipant(id int64) bool {
	return id == m.ParticipantA || id == m.ParticipantB
}

// Opponent returns the other participant for id.
// ok is false when id is not a participant at all.
func (m Match) Opponent(id int64) (int64, bool) {
	switch id {
	case m.ParticipantA:
		return m.ParticipantB, true
	case m.ParticipantB:
		return m.ParticipantA, true
	default:
		return 0, false
	}
}

// Question is one entry of a match's dealt sequence. Immutable once dealt.
// CorrectAnswer must never reach a client before both answers are in.
type Question struct {
	Prompt        string
	CorrectAnswer string
	Options       []string
}

// AnswerRecord captures one identity's submission for one question index.
type AnswerRecord struct {
	Answer    string
	IsCorrect bool
	ElapsedMs int
	Points    int
}
