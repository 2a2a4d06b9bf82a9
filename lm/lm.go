// Package lm provides language model scoring for the decoder.
package lm

import "strings"

const (
	SentenceStart = "<s>"
	SentenceEnd   = "</s>"
	Unknown       = "<unk>"
)

// State is the opaque context a model carries between phrases. States are
// comparable, so equal states can be merged during recombination.
type State struct {
	context string
}

// NewState builds a state from context words, oldest first.
func NewState(words []string) State {
	return State{context: strings.Join(words, " ")}
}

// Words returns the context words, oldest first.
func (s State) Words() []string {
	return strings.Fields(s.context)
}

func (s State) String() string {
	return s.context
}

// Model scores target words given a prior state.
// Implementations must be safe for concurrent read-only use.
type Model interface {
	// Order returns the n-gram order.
	Order() int
	// BeginState is the state at the start of a sentence.
	BeginState() State
	// Score returns the natural-log probability of words following prior,
	// and the state after the last word.
	Score(prior State, words []string) (float64, State)
	// ScoreEnd returns the log probability of the sentence end after prior.
	ScoreEnd(prior State) float64
	// Estimate scores words without left context, for future-cost estimates.
	Estimate(words []string) float64
}
