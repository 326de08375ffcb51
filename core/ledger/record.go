package ledger

import (
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Record is the denormalized per-account document. Students carry their own copy of every
// distributed word; teachers additionally own their assignment definitions.
type Record struct {
	ID           string   `json:"id,omitempty"`
	Email        string   `json:"email"`
	FullName     string   `json:"fullName,omitempty"`
	Role         string   `json:"role,omitempty"`
	Classes      []string `json:"classes"`
	Sections     []string `json:"sections"`
	PasswordHash []byte   `json:"passwordHash,omitempty"`

	WordScramble     WordScramble     `json:"wordscramble"`
	WordSearch       WordSearch       `json:"wordsearch"`
	VocabularyArcade VocabularyArcade `json:"vocabularyArchade"`

	Completion
	TimeSpent int             `json:"timeSpent"`
	Overall   int             `json:"overall"`
	DailyData json.RawMessage `json:"dailyData,omitempty"`

	Assignments []Assignment `json:"assignments,omitempty"`
}

// Completion holds the per-skill completion percentages.
type Completion struct {
	Speaking      int `json:"speakingCompletion"`
	Pronunciation int `json:"pronunciationCompletion"`
	Grammar       int `json:"grammarCompletion"`
	Vocabulary    int `json:"vocabularyCompletion"`
	Reflex        int `json:"reflexCompletion"`
	Story         int `json:"storyCompletion"`
}

// Skill returns a pointer to the completion field of `skill`
// (speaking, pronunciation, grammar, vocabulary, reflex or story).
func (c *Completion) Skill(skill string) (*int, bool) {
	switch skill {
	case "speaking":
		return &c.Speaking, true
	case "pronunciation":
		return &c.Pronunciation, true
	case "grammar":
		return &c.Grammar, true
	case "vocabulary":
		return &c.Vocabulary, true
	case "reflex":
		return &c.Reflex, true
	case "story":
		return &c.Story, true
	}
	return nil, false
}

type Score struct {
	Score int `json:"score"`
}

type (
	// ScrambleEntry is stored as the tuple [word, hintCount, solved].
	ScrambleEntry struct {
		Word      string
		HintCount int
		Solved    bool
	}

	WordScramble struct {
		Easy        []ScrambleEntry `json:"easy"`
		EasyScore   Score           `json:"easyscore"`
		Medium      []ScrambleEntry `json:"medium"`
		MediumScore Score           `json:"mediumscore"`
		Hard        []ScrambleEntry `json:"hard"`
		HardScore   Score           `json:"hardscore"`
	}
)

func (e ScrambleEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Word, e.HintCount, e.Solved})
}

func (e *ScrambleEntry) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return errors.Wrap(err, "decoding scramble entry")
	}
	*e = ScrambleEntry{}
	if len(tuple) > 0 {
		if err := json.Unmarshal(tuple[0], &e.Word); err != nil {
			return errors.Wrap(err, "decoding scramble word")
		}
	}
	if len(tuple) > 1 {
		if err := json.Unmarshal(tuple[1], &e.HintCount); err != nil {
			return errors.Wrap(err, "decoding scramble hint count")
		}
	}
	if len(tuple) > 2 {
		if err := json.Unmarshal(tuple[2], &e.Solved); err != nil {
			return errors.Wrap(err, "decoding scramble solved flag")
		}
	}
	return nil
}

// Tier returns the collection and score of difficulty `d`.
func (ws *WordScramble) Tier(d Difficulty) (*[]ScrambleEntry, *Score, error) {
	switch d {
	case Easy:
		return &ws.Easy, &ws.EasyScore, nil
	case Medium:
		return &ws.Medium, &ws.MediumScore, nil
	case Hard:
		return &ws.Hard, &ws.HardScore, nil
	}
	_, err := LevelFor(d)
	return nil, nil, err
}

type (
	SearchWord struct {
		Word   string `json:"word"`
		Hint   string `json:"hint"`
		Solved bool   `json:"solved"`
	}

	SearchLevel struct {
		Score int          `json:"score"`
		Words []SearchWord `json:"words"`
	}

	WordSearch struct {
		Beginner     SearchLevel `json:"beginner"`
		Intermediate SearchLevel `json:"intermediate"`
		Advanced     SearchLevel `json:"advanced"`
	}
)

func (ws *WordSearch) Level(l Level) (*SearchLevel, error) {
	switch l {
	case Beginner:
		return &ws.Beginner, nil
	case Intermediate:
		return &ws.Intermediate, nil
	case Advanced:
		return &ws.Advanced, nil
	}
	return nil, invalid("level", errors.Errorf("unknown level %q", l))
}

type (
	VocabWord struct {
		Word                 string   `json:"word"`
		Definition           string   `json:"definition"`
		IncorrectDefinitions []string `json:"incorrectDefinitions"`
		PartOfSpeech         string   `json:"partOfSpeech"`
		Example              string   `json:"example"`
		Hint                 string   `json:"hint"`
		IsSolved             bool     `json:"isSolved"`
	}

	VocabLevel struct {
		Score       int         `json:"score"`
		Badge       string      `json:"badge"`
		WordDetails []VocabWord `json:"wordDetails"`
	}

	VocabularyArcade struct {
		Beginner     VocabLevel `json:"beginner"`
		Intermediate VocabLevel `json:"intermediate"`
		Advanced     VocabLevel `json:"advanced"`
	}
)

func (va *VocabularyArcade) Level(l Level) (*VocabLevel, error) {
	switch l {
	case Beginner:
		return &va.Beginner, nil
	case Intermediate:
		return &va.Intermediate, nil
	case Advanced:
		return &va.Advanced, nil
	}
	return nil, invalid("level", errors.Errorf("unknown level %q", l))
}

func (r *Record) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	r.PasswordHash = hash
	return nil
}

func (r Record) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(r.PasswordHash, []byte(pwd))
}

func (r Record) IsStudent() bool { return r.Role == RoleStudent }

func (r Record) IsTeacher() bool { return r.Role == RoleTeacher }

func (r Record) HasClass(class string) bool { return contains(r.Classes, class) }

func (r Record) HasSection(section string) bool { return contains(r.Sections, section) }

// InRoster reports whether the record belongs to the class+section roster.
func (r Record) InRoster(class, section string) bool {
	return r.HasClass(class) && r.HasSection(section)
}

// Assignment returns the owned assignment with `id`.
func (r Record) Assignment(id string) (Assignment, bool) {
	for _, a := range r.Assignments {
		if a.ID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

// Public returns a copy that is safe to hand out (no password hash).
func (r Record) Public() Record {
	r.PasswordHash = nil
	return r
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
