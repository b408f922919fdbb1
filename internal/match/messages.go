package match

import "github.com/smuotoe/geoelevate/internal/domain/model"

// Server-to-client message types.
const (
	TypeMatchJoined        = "match_joined"
	TypeWaitingForOpponent = "waiting_for_opponent"
	TypeMatchStart         = "match_start"
	TypeOpponentAnswered   = "opponent_answered"
	TypeQuestionResults    = "question_results"
	TypeNextQuestion       = "next_question"
	TypeMatchEnd           = "match_end"
	TypeOpponentLeft       = "opponent_left"
	TypeError              = "error"
	TypePong               = "pong"
)

// QuestionView is the client-facing shape of a question. It never carries
// the correct answer.
type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// SanitizeQuestion strips the correct answer before a question goes out.
func SanitizeQuestion(q model.Question) QuestionView {
	return QuestionView{Prompt: q.Prompt, Options: q.Options}
}

// MatchJoined acknowledges a successful join to the joiner alone.
type MatchJoined struct {
	Type           string `json:"type"`
	MatchID        int64  `json:"matchId"`
	TotalQuestions int    `json:"totalQuestions"`
}

// WaitingForOpponent tells the sole joiner the match has not started yet.
type WaitingForOpponent struct {
	Type string `json:"type"`
}

// MatchStart opens the match with the first question, sent to both sides.
type MatchStart struct {
	Type           string       `json:"type"`
	Question       QuestionView `json:"question"`
	QuestionIndex  int          `json:"questionIndex"`
	TotalQuestions int          `json:"totalQuestions"`
}

// OpponentAnswered drives the waiting indicator without leaking the answer.
type OpponentAnswered struct {
	Type          string `json:"type"`
	QuestionIndex int    `json:"questionIndex"`
}

// PlayerResult is one side's outcome for a resolved question.
type PlayerResult struct {
	Answer    string `json:"answer"`
	IsCorrect bool   `json:"isCorrect"`
	Score     int    `json:"score"`
	TimeMs    int    `json:"timeMs"`
}

// QuestionResults reveals both answers and the correct one once the
// question is resolved. Map keys are decimal identity ids.
type QuestionResults struct {
	Type          string                  `json:"type"`
	QuestionIndex int                     `json:"questionIndex"`
	CorrectAnswer string                  `json:"correctAnswer"`
	Results       map[string]PlayerResult `json:"results"`
	Scores        map[string]int          `json:"scores"`
}

// NextQuestion deals the following question after the results pause.
type NextQuestion struct {
	Type          string       `json:"type"`
	Question      QuestionView `json:"question"`
	QuestionIndex int          `json:"questionIndex"`
}

// MatchEnd carries the final outcome. WinnerID is absent on ties;
// IsTie distinguishes a tie from an undecided match.
type MatchEnd struct {
	Type     string         `json:"type"`
	WinnerID *int64         `json:"winnerId,omitempty"`
	Scores   map[string]int `json:"scores"`
	IsTie    bool           `json:"isTie"`
}

// OpponentLeft tells the remaining participant the match is forfeit.
type OpponentLeft struct {
	Type string `json:"type"`
}

// ErrorMessage reports a non-fatal validation failure to the sender.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pong answers an application-level ping.
type Pong struct {
	Type string `json:"type"`
}

// NewError builds an ErrorMessage with its type set.
func NewError(code, message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Code: code, Message: message}
}

// NewPong builds a Pong with its type set.
func NewPong() Pong {
	return Pong{Type: TypePong}
}
