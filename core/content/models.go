package content

import (
	"github.com/speakmate/speakmate/core/ledger"
)

// Outcome classifies a distribution that did not fail.
type Outcome string

const (
	// OutcomeNothingToDo means no item survived validation; the store was not touched.
	OutcomeNothingToDo Outcome = "nothing_to_do"
	// OutcomeNoMatch means no student belongs to the roster.
	OutcomeNoMatch Outcome = "no_match"
	OutcomeApplied Outcome = "applied"
)

type (
	// Item is one word sent to a roster. Only the fields relevant to the target module are kept.
	Item struct {
		Word             string   `json:"word"`
		Difficulty       string   `json:"difficulty"`
		Definition       string   `json:"definition,omitempty"`
		WrongDefinitions []string `json:"wrongDefinitions,omitempty"`
		PartOfSpeech     string   `json:"partOfSpeech,omitempty"`
		Example          string   `json:"example,omitempty"`
		Hint             string   `json:"hint,omitempty"`
	}

	Distribution struct {
		Module  ledger.Module
		Class   string
		Section string
		Items   []Item
		// Resume skips, per student, the items whose word already sits in the target tier.
		Resume bool
	}

	Result struct {
		Outcome  Outcome
		Matched  int
		Modified int
		Skipped  int // items dropped for an unknown difficulty or an empty word
	}
)
