package match

import (
	"strconv"
	"sync"

	"github.com/smuotoe/geoelevate/internal/domain/model"
)

// Conn is the outbound side of a participant's channel. Send must not
// block; implementations drop the frame when the peer cannot keep up.
type Conn interface {
	Send(v any) bool
}

// playerSlot tracks one participant's live connection and running score.
type playerSlot struct {
	conn     Conn
	score    int
	answered bool
}

// State is the in-memory representation of one active match. It exists
// only while the durable match is active and is destroyed the moment the
// match reaches a terminal outcome or loses a participant.
//
// All mutation happens under mu; the coordinator is the only writer.
type State struct {
	mu sync.Mutex

	rec       model.Match // durable record snapshot taken at creation
	questions []model.Question
	current   int
	slots     map[int64]*playerSlot
	answers   map[int]map[int64]*model.AnswerRecord

	started bool
	done    bool
	// generation invalidates scheduled timers on teardown: a timer captures
	// the generation at scheduling time and no-ops when it has moved on.
	generation int
}

func newState(rec model.Match, questions []model.Question) *State {
	return &State{
		rec:       rec,
		questions: questions,
		slots:     make(map[int64]*playerSlot),
		answers:   make(map[int]map[int64]*model.AnswerRecord),
	}
}

// MatchID returns the durable match id this state serves.
func (s *State) MatchID() int64 {
	return s.rec.ID
}

// CurrentIndex returns the index of the question being played.
func (s *State) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Scores returns the running totals keyed by identity.
func (s *State) Scores() map[int64]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]int, len(s.slots))
	for id, slot := range s.slots {
		out[id] = slot.score
	}
	return out
}

// scoresByParticipantLocked maps slot scores onto the record's A/B order.
// Absent slots score zero. Callers must hold mu.
func (s *State) scoresByParticipantLocked() (scoreA, scoreB int) {
	if slot, ok := s.slots[s.rec.ParticipantA]; ok {
		scoreA = slot.score
	}
	if slot, ok := s.slots[s.rec.ParticipantB]; ok {
		scoreB = slot.score
	}
	return scoreA, scoreB
}

// broadcastLocked sends v to every registered slot. Callers must hold mu.
func (s *State) broadcastLocked(v any) {
	for _, slot := range s.slots {
		slot.conn.Send(v)
	}
}

// identityKey renders an identity as a JSON object key.
func identityKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
