package ledger

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Mutation edits a single record in place and reports whether anything changed.
// Stores apply a mutation atomically per document; it may be invoked more than once
// when a store retries, so it must not keep state between calls.
type Mutation func(rec *Record) (modified bool, err error)

// Chain applies every mutation in order. The record counts as modified if any of them modified it.
func Chain(muts ...Mutation) Mutation {
	return func(rec *Record) (bool, error) {
		var modified bool
		for _, mut := range muts {
			ok, err := mut(rec)
			if err != nil {
				return false, err
			}
			modified = modified || ok
		}
		return modified, nil
	}
}

// PushScramble appends entries to the difficulty tier. With missingOnly set,
// entries whose word is already present are skipped.
func PushScramble(d Difficulty, missingOnly bool, entries ...ScrambleEntry) Mutation {
	return func(rec *Record) (bool, error) {
		tier, _, err := rec.WordScramble.Tier(d)
		if err != nil {
			return false, err
		}
		var modified bool
		for _, e := range entries {
			if missingOnly && IndexScramble(*tier, e.Word) >= 0 {
				continue
			}
			*tier = append(*tier, e)
			modified = true
		}
		return modified, nil
	}
}

func PushSearch(l Level, missingOnly bool, words ...SearchWord) Mutation {
	return func(rec *Record) (bool, error) {
		lvl, err := rec.WordSearch.Level(l)
		if err != nil {
			return false, err
		}
		var modified bool
		for _, w := range words {
			if missingOnly && IndexSearch(lvl.Words, w.Word) >= 0 {
				continue
			}
			lvl.Words = append(lvl.Words, w)
			modified = true
		}
		return modified, nil
	}
}

func PushVocabulary(l Level, missingOnly bool, words ...VocabWord) Mutation {
	return func(rec *Record) (bool, error) {
		lvl, err := rec.VocabularyArcade.Level(l)
		if err != nil {
			return false, err
		}
		var modified bool
		for _, w := range words {
			if missingOnly && IndexVocabulary(lvl.WordDetails, w.Word) >= 0 {
				continue
			}
			w.IncorrectDefinitions = append([]string(nil), w.IncorrectDefinitions...)
			lvl.WordDetails = append(lvl.WordDetails, w)
			modified = true
		}
		return modified, nil
	}
}

// Removal reports what retracting one item did to a record.
type Removal struct {
	Item    ItemRef
	Removed bool
	State   ItemState
}

// Compensated reports whether the removal took back a point from the tier score.
func (r Removal) Compensated() bool { return r.Removed && r.State == StateSolved }

// Retract removes the first entry matching each item from the module tier of the item's
// difficulty and, in the same write, decrements the tier score for every removed entry
// that was solved. `report` receives the removals of the latest application.
func Retract(m Module, items []ItemRef, report func([]Removal)) Mutation {
	return func(rec *Record) (bool, error) {
		removals := make([]Removal, 0, len(items))
		var modified bool
		for _, it := range items {
			rm, err := retractOne(rec, m, it)
			if err != nil {
				return false, err
			}
			modified = modified || rm.Removed
			removals = append(removals, rm)
		}
		if report != nil {
			report(removals)
		}
		return modified, nil
	}
}

func retractOne(rec *Record, m Module, it ItemRef) (Removal, error) {
	rm := Removal{Item: it, State: StateUnassigned}
	switch m {
	case ModuleScramble:
		tier, score, err := rec.WordScramble.Tier(it.Difficulty)
		if err != nil {
			return rm, err
		}
		i := IndexScramble(*tier, it.Word)
		if i < 0 {
			return rm, nil
		}
		rm.Removed, rm.State = true, (*tier)[i].State()
		*tier = append((*tier)[:i], (*tier)[i+1:]...)
		if rm.Compensated() {
			score.Score--
		}
	case ModuleSearch:
		lvl, err := rec.searchLevel(it.Difficulty)
		if err != nil {
			return rm, err
		}
		i := IndexSearch(lvl.Words, it.Word)
		if i < 0 {
			return rm, nil
		}
		rm.Removed, rm.State = true, lvl.Words[i].State()
		lvl.Words = append(lvl.Words[:i], lvl.Words[i+1:]...)
		if rm.Compensated() {
			lvl.Score--
		}
	case ModuleVocabulary:
		lvl, err := rec.vocabLevel(it.Difficulty)
		if err != nil {
			return rm, err
		}
		i := IndexVocabulary(lvl.WordDetails, it.Word)
		if i < 0 {
			return rm, nil
		}
		rm.Removed, rm.State = true, lvl.WordDetails[i].State()
		lvl.WordDetails = append(lvl.WordDetails[:i], lvl.WordDetails[i+1:]...)
		if rm.Compensated() {
			lvl.Score--
		}
	default:
		_, err := ParseModule(string(m))
		return rm, err
	}
	return rm, nil
}

// SolveScramble marks the first unsolved entry holding `word` as solved and awards one point.
func SolveScramble(d Difficulty, word string) Mutation {
	return func(rec *Record) (bool, error) {
		tier, score, err := rec.WordScramble.Tier(d)
		if err != nil {
			return false, err
		}
		for i := range *tier {
			e := &(*tier)[i]
			if e.Word == word && !e.Solved {
				e.Solved = true
				score.Score++
				return true, nil
			}
		}
		return false, nil
	}
}

// IncrementHint bumps the hint counter of the first entry holding `word`.
func IncrementHint(d Difficulty, word string) Mutation {
	return func(rec *Record) (bool, error) {
		tier, _, err := rec.WordScramble.Tier(d)
		if err != nil {
			return false, err
		}
		i := IndexScramble(*tier, word)
		if i < 0 {
			return false, nil
		}
		(*tier)[i].HintCount++
		return true, nil
	}
}

// SolveSearch marks the first word match as solved. The level score is set to `score`
// when given, otherwise it gains one point on the transition to solved.
func SolveSearch(l Level, word string, score *int) Mutation {
	return func(rec *Record) (bool, error) {
		lvl, err := rec.WordSearch.Level(l)
		if err != nil {
			return false, err
		}
		i := IndexSearch(lvl.Words, word)
		if i < 0 {
			return false, nil
		}
		var modified bool
		if !lvl.Words[i].Solved {
			lvl.Words[i].Solved = true
			modified = true
			if score == nil {
				lvl.Score++
			}
		}
		if score != nil && lvl.Score != *score {
			lvl.Score = *score
			modified = true
		}
		return modified, nil
	}
}

// SolveVocabulary marks the first unsolved word match as solved and awards one point.
func SolveVocabulary(l Level, word string) Mutation {
	return func(rec *Record) (bool, error) {
		lvl, err := rec.VocabularyArcade.Level(l)
		if err != nil {
			return false, err
		}
		for i := range lvl.WordDetails {
			w := &lvl.WordDetails[i]
			if w.Word == word && !w.IsSolved {
				w.IsSolved = true
				lvl.Score++
				return true, nil
			}
		}
		return false, nil
	}
}

func SetBadge(l Level, badge string) Mutation {
	return func(rec *Record) (bool, error) {
		lvl, err := rec.VocabularyArcade.Level(l)
		if err != nil {
			return false, err
		}
		if lvl.Badge == badge {
			return false, nil
		}
		lvl.Badge = badge
		return true, nil
	}
}

// SetDailyData stores the opaque daily data and folds the current day's skill completions
// into the record: each known skill becomes the integer mean of its stored and current value.
func SetDailyData(data json.RawMessage, currentDay map[string]int) Mutation {
	return func(rec *Record) (bool, error) {
		if len(data) > 0 && !json.Valid(data) {
			return false, invalid("data", errors.New("daily data must be valid JSON"))
		}
		rec.DailyData = append(json.RawMessage(nil), data...)
		for skill, value := range currentDay {
			if field, ok := rec.Completion.Skill(skill); ok {
				*field = (*field + value) / 2
			}
		}
		return true, nil
	}
}

// AppendAssignment adds a definition to the owner's collection, creating it if absent.
// Ids are unique per owner.
func AppendAssignment(a Assignment) Mutation {
	return func(rec *Record) (bool, error) {
		if _, exists := rec.Assignment(a.ID); exists {
			return false, invalid("id", errors.Errorf("assignment %q already exists", a.ID))
		}
		rec.Assignments = append(rec.Assignments, a)
		return true, nil
	}
}

// RemoveAssignment pulls every definition with `id` from the owner's collection.
func RemoveAssignment(id string) Mutation {
	return func(rec *Record) (bool, error) {
		kept := rec.Assignments[:0]
		for _, a := range rec.Assignments {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		modified := len(kept) != len(rec.Assignments)
		rec.Assignments = kept
		return modified, nil
	}
}
