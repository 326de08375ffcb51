package student

import (
	"encoding/json"

	"github.com/speakmate/speakmate/core/assignment"
)

// CreateOutcome tells a created account from one that already existed.
type CreateOutcome string

const (
	OutcomeCreated CreateOutcome = "success"
	OutcomeExists  CreateOutcome = "exists"
)

type (
	// Summary is one row of a roster listing.
	Summary struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		FullName      string `json:"fullName"`
		Class         string `json:"class"`
		Section       string `json:"section"`
		Speaking      int    `json:"speaking"`
		Pronunciation int    `json:"pronunciation"`
		Vocabulary    int    `json:"vocabulary"`
		Grammar       int    `json:"grammar"`
		Story         int    `json:"story"`
		Reflex        int    `json:"reflex"`
		TimeSpent     int    `json:"timeSpent"`
		Overall       int    `json:"overall"`
	}

	Overall struct {
		StudentEmail string `json:"studentEmail"`
		assignment.Progress
	}

	// DailyUpdate carries the client's daily data blob and the skill completions of the current day,
	// keyed by skill name (speaking, pronunciation, grammar, vocabulary, reflex, story).
	DailyUpdate struct {
		Email      string
		Data       json.RawMessage
		CurrentDay map[string]int
	}
)
