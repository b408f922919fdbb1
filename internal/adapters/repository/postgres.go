package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/smuotoe/geoelevate/internal/domain/model"
)

// matchRecord is the gorm mapping for the matches table.
type matchRecord struct {
	ID           int64              `gorm:"primaryKey"`
	ParticipantA int64              `gorm:"column:participant_a;index;not null"`
	ParticipantB int64              `gorm:"column:participant_b;index;not null"`
	GameKind     string             `gorm:"type:varchar(32);not null;default:'capitals'"`
	Status       string             `gorm:"type:varchar(16);index;not null;default:'pending';check:status IN ('pending','active','completed','cancelled')"`
	ScoreA       int                `gorm:"column:score_a;default:0"`
	ScoreB       int                `gorm:"column:score_b;default:0"`
	Winner       *int64             `gorm:"index"`
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

func (matchRecord) TableName() string { return "matches" }

// answerLogRecord is the gorm mapping for the append-only answer log.
type answerLogRecord struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	MatchID       int64  `gorm:"index;not null"`
	Identity      int64  `gorm:"index;not null"`
	QuestionIndex int    `gorm:"not null"`
	Answer        string `gorm:"type:text"`
	IsCorrect     bool
	ElapsedMs     int
	Points        int
	CreatedAt     time.Time
}

func (answerLogRecord) TableName() string { return "match_answers" }

// PostgresGateway implements Gateway on top of gorm/Postgres.
type PostgresGateway struct {
	db *gorm.DB
}

// OpenPostgres dials the database and migrates the gateway's tables.
func OpenPostgres(dsn string) (*PostgresGateway, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(&matchRecord{}, &answerLogRecord{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &PostgresGateway{db: db}, nil
}

// ActiveMatch returns the match when it exists and is active.
func (g *PostgresGateway) ActiveMatch(ctx context.Context, matchID int64) (model.Match, error) {
	var rec matchRecord
	err := g.db.WithContext(ctx).
		Where("id = ? AND status = ?", matchID, string(model.StatusActive)).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("load match %d: %w", matchID, err)
	}
	return rec.toModel(), nil
}

// RecordAnswer appends one row to the answer log.
func (g *PostgresGateway) RecordAnswer(ctx context.Context, row AnswerRow) error {
	rec := answerLogRecord{
		ID:            row.ID,
		MatchID:       row.MatchID,
		Identity:      row.Identity,
		QuestionIndex: row.QuestionIndex,
		Answer:        row.Answer,
		IsCorrect:     row.IsCorrect,
		ElapsedMs:     row.ElapsedMs,
		Points:        row.Points,
		CreatedAt:     row.CreatedAt,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := g.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("%w: append answer for match %d: %w", ErrWriteFailed, row.MatchID, err)
	}
	return nil
}

// SaveProgress persists running totals for an active match.
func (g *PostgresGateway) SaveProgress(ctx context.Context, matchID int64, scoreA, scoreB int) error {
	err := g.db.WithContext(ctx).
		Model(&matchRecord{}).
		Where("id = ? AND status = ?", matchID, string(model.StatusActive)).
		Updates(map[string]any{"score_a": scoreA, "score_b": scoreB}).Error
	if err != nil {
		return fmt.Errorf("%w: save progress for match %d: %w", ErrWriteFailed, matchID, err)
	}
	return nil
}

// CompleteMatch transitions an active match to completed. The status guard in
// the WHERE clause keeps the transition idempotent under racing finalizers.
func (g *PostgresGateway) CompleteMatch(ctx context.Context, matchID int64, scoreA, scoreB int, winner *int64) error {
	now := time.Now()
	err := g.db.WithContext(ctx).
		Model(&matchRecord{}).
		Where("id = ? AND status = ?", matchID, string(model.StatusActive)).
		Updates(map[string]any{
			"status":       string(model.StatusCompleted),
			"score_a":      scoreA,
			"score_b":      scoreB,
			"winner":       winner,
			"completed_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("%w: complete match %d: %w", ErrWriteFailed, matchID, err)
	}
	return nil
}

func (r matchRecord) toModel() model.Match {
	return model.Match{
		ID:           r.ID,
		ParticipantA: r.ParticipantA,
		ParticipantB: r.ParticipantB,
		GameKind:     r.GameKind,
		Status:       model.MatchStatus(r.Status),
		ScoreA:       r.ScoreA,
		ScoreB:       r.ScoreB,
		Winner:       r.Winner,
		CreatedAt:    r.CreatedAt,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
}
