package ledger

// ItemState is the lifecycle of a distributed word inside one student record.
//
//	Unassigned -> Assigned (distribution) -> Solved (play action) -> removed (retraction)
//
// Only removing a Solved item takes back the score it earned.
type ItemState int

const (
	StateUnassigned ItemState = iota
	StateAssigned
	StateSolved
)

func (s ItemState) String() string {
	switch s {
	case StateAssigned:
		return "assigned"
	case StateSolved:
		return "solved"
	}
	return "unassigned"
}

func stateOf(solved bool) ItemState {
	if solved {
		return StateSolved
	}
	return StateAssigned
}

func (e ScrambleEntry) State() ItemState { return stateOf(e.Solved) }

func (w SearchWord) State() ItemState { return stateOf(w.Solved) }

func (w VocabWord) State() ItemState { return stateOf(w.IsSolved) }

// IndexScramble returns the index of the first entry holding `word`, or -1.
func IndexScramble(entries []ScrambleEntry, word string) int {
	for i, e := range entries {
		if e.Word == word {
			return i
		}
	}
	return -1
}

func IndexSearch(words []SearchWord, word string) int {
	for i, w := range words {
		if w.Word == word {
			return i
		}
	}
	return -1
}

func IndexVocabulary(words []VocabWord, word string) int {
	for i, w := range words {
		if w.Word == word {
			return i
		}
	}
	return -1
}

// ItemState resolves the state of the first `word` in the tier of `d` for module `m`.
// Search and vocabulary tiers are addressed through LevelFor(d).
func (r *Record) ItemState(m Module, d Difficulty, word string) (ItemState, error) {
	switch m {
	case ModuleScramble:
		entries, _, err := r.WordScramble.Tier(d)
		if err != nil {
			return StateUnassigned, err
		}
		if i := IndexScramble(*entries, word); i >= 0 {
			return (*entries)[i].State(), nil
		}
	case ModuleSearch:
		lvl, err := r.searchLevel(d)
		if err != nil {
			return StateUnassigned, err
		}
		if i := IndexSearch(lvl.Words, word); i >= 0 {
			return lvl.Words[i].State(), nil
		}
	case ModuleVocabulary:
		lvl, err := r.vocabLevel(d)
		if err != nil {
			return StateUnassigned, err
		}
		if i := IndexVocabulary(lvl.WordDetails, word); i >= 0 {
			return lvl.WordDetails[i].State(), nil
		}
	default:
		_, err := ParseModule(string(m))
		return StateUnassigned, err
	}
	return StateUnassigned, nil
}

// Tally counts every distributed item of the record and how many of them are solved,
// across all modules and tiers.
func (r *Record) Tally() (total, solved int) {
	count := func(s ItemState) {
		total++
		if s == StateSolved {
			solved++
		}
	}
	for _, d := range Difficulties {
		entries, _, _ := r.WordScramble.Tier(d)
		for _, e := range *entries {
			count(e.State())
		}
	}
	for _, l := range Levels {
		sl, _ := r.WordSearch.Level(l)
		for _, w := range sl.Words {
			count(w.State())
		}
		vl, _ := r.VocabularyArcade.Level(l)
		for _, w := range vl.WordDetails {
			count(w.State())
		}
	}
	return total, solved
}

func (r *Record) searchLevel(d Difficulty) (*SearchLevel, error) {
	l, err := LevelFor(d)
	if err != nil {
		return nil, err
	}
	return r.WordSearch.Level(l)
}

func (r *Record) vocabLevel(d Difficulty) (*VocabLevel, error) {
	l, err := LevelFor(d)
	if err != nil {
		return nil, err
	}
	return r.VocabularyArcade.Level(l)
}
