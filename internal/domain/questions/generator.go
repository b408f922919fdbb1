// Package questions deals the immutable question sequence for a match.
package questions

import (
	"fmt"
	"math/rand"

	"github.com/smuotoe/geoelevate/internal/domain/model"
)

// Default generation constants.
const (
	defaultOptionCount = 4
)

// Option applies a configuration option to the BankGenerator.
type Option func(*BankGenerator)

// WithOptionCount sets the number of choices per question, correct one included.
func WithOptionCount(n int) Option {
	return func(g *BankGenerator) {
		if n >= 2 {
			g.optionCount = n
		}
	}
}

// WithEntries replaces the default country/capital bank.
func WithEntries(entries []Entry) Option {
	return func(g *BankGenerator) {
		if len(entries) > 0 {
			g.entries = entries
		}
	}
}

// BankGenerator builds question sequences from a country/capital bank.
//
// Sequences are deterministic per match id: a regenerated sequence for the
// same match can never diverge from the one already dealt.
type BankGenerator struct {
	entries     []Entry
	optionCount int
}

// New creates a generator with configuration options.
func New(opts ...Option) *BankGenerator {
	g := &BankGenerator{
		entries:     defaultBank,
		optionCount: defaultOptionCount,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate deals n questions for the given match.
func (g *BankGenerator) Generate(matchID int64, n int) []model.Question {
	if n < 1 {
		return nil
	}
	if n > len(g.entries) {
		n = len(g.entries)
	}

	rng := rand.New(rand.NewSource(matchID)) //nolint:gosec // deterministic per match, not security-sensitive

	order := rng.Perm(len(g.entries))
	out := make([]model.Question, 0, n)
	for _, idx := range order[:n] {
		entry := g.entries[idx]
		out = append(out, g.buildQuestion(rng, entry))
	}
	return out
}

// buildQuestion assembles one prompt with the correct capital shuffled
// among decoys drawn from other bank entries.
func (g *BankGenerator) buildQuestion(rng *rand.Rand, entry Entry) model.Question {
	options := make([]string, 0, g.optionCount)
	options = append(options, entry.Capital)

	// One pass over a shuffled bank terminates even when capitals repeat
	// across entries; a short bank just yields fewer options.
	seen := map[string]bool{entry.Capital: true}
	for _, idx := range rng.Perm(len(g.entries)) {
		if len(options) >= g.optionCount {
			break
		}
		decoy := g.entries[idx].Capital
		if seen[decoy] {
			continue
		}
		seen[decoy] = true
		options = append(options, decoy)
	}

	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return model.Question{
		Prompt:        fmt.Sprintf("What is the capital of %s?", entry.Country),
		CorrectAnswer: entry.Capital,
		Options:       options,
	}
}
