package ledger

import (
	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
)

// Difficulty is the word-scramble naming of a tier.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Level is the word-search / vocabulary naming of a tier.
type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

// Module is a practice module holding distributed content. Assignment types share these values.
type Module string

const (
	ModuleScramble   Module = "word_scramble"
	ModuleSearch     Module = "word_search"
	ModuleVocabulary Module = "vocabulary_builder"
)

var (
	Difficulties = []Difficulty{Easy, Medium, Hard}
	Levels       = []Level{Beginner, Intermediate, Advanced}
	Modules      = []Module{ModuleScramble, ModuleSearch, ModuleVocabulary}

	difficultyLevels = map[Difficulty]Level{
		Easy:   Beginner,
		Medium: Intermediate,
		Hard:   Advanced,
	}
)

// LevelFor maps a difficulty to its level. An unknown difficulty is an invalid argument.
func LevelFor(d Difficulty) (Level, error) {
	if lvl, ok := difficultyLevels[d]; ok {
		return lvl, nil
	}
	return "", invalid("difficulty", errors.Errorf("unknown difficulty %q", d))
}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(core.CleanString(s, true /* lower */))
	if _, ok := difficultyLevels[d]; !ok {
		return "", invalid("difficulty", errors.Errorf("unknown difficulty %q", s))
	}
	return d, nil
}

func ParseLevel(s string) (Level, error) {
	lvl := Level(core.CleanString(s, true /* lower */))
	for _, l := range Levels {
		if l == lvl {
			return lvl, nil
		}
	}
	return "", invalid("level", errors.Errorf("unknown level %q", s))
}

func ParseModule(s string) (Module, error) {
	m := Module(core.CleanString(s))
	for _, known := range Modules {
		if known == m {
			return m, nil
		}
	}
	return "", invalid("type", errors.Errorf("unknown assignment type %q", s))
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyLevels[d]
	return ok
}

func invalid(field string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}
